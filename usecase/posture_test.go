package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/repository"
	"github.com/KulbirJ/compliance-platform-sub000/domain/service"
	"github.com/KulbirJ/compliance-platform-sub000/infrastructure/reporting"
	"github.com/KulbirJ/compliance-platform-sub000/pkg/metrics"
)

type stubAssessmentRepo struct {
	assessments map[uuid.UUID]*entity.Assessment
	controls    map[uuid.UUID]*entity.Control
	assessed    map[string]*entity.ControlAssessment
}

func newStubAssessmentRepo() *stubAssessmentRepo {
	return &stubAssessmentRepo{
		assessments: make(map[uuid.UUID]*entity.Assessment),
		controls:    make(map[uuid.UUID]*entity.Control),
		assessed:    make(map[string]*entity.ControlAssessment),
	}
}

func pairKey(assessmentID, controlID uuid.UUID) string {
	return assessmentID.String() + ":" + controlID.String()
}

func (r *stubAssessmentRepo) GetAssessment(_ context.Context, id uuid.UUID) (*entity.Assessment, error) {
	if a, ok := r.assessments[id]; ok {
		return a, nil
	}
	return nil, errors.Wrapf(entity.ErrNotFound, "assessment %s", id)
}

func (r *stubAssessmentRepo) GetOrganization(_ context.Context, id uuid.UUID) (*entity.Organization, error) {
	return nil, errors.Wrapf(entity.ErrNotFound, "organization %s", id)
}

func (r *stubAssessmentRepo) GetControl(_ context.Context, id uuid.UUID) (*entity.Control, error) {
	if c, ok := r.controls[id]; ok {
		return c, nil
	}
	return nil, errors.Wrapf(entity.ErrNotFound, "control %s", id)
}

func (r *stubAssessmentRepo) ListControls(_ context.Context) ([]*entity.Control, error) {
	var out []*entity.Control
	for _, c := range r.controls {
		out = append(out, c)
	}
	return out, nil
}

func (r *stubAssessmentRepo) CountControls(_ context.Context) (int, error) {
	return len(r.controls), nil
}

func (r *stubAssessmentRepo) GetControlAssessment(_ context.Context, assessmentID, controlID uuid.UUID) (*entity.ControlAssessment, error) {
	if ca, ok := r.assessed[pairKey(assessmentID, controlID)]; ok {
		return ca, nil
	}
	return nil, errors.Wrapf(entity.ErrNotFound, "control assessment %s/%s", assessmentID, controlID)
}

func (r *stubAssessmentRepo) ListControlAssessments(_ context.Context, assessmentID uuid.UUID) ([]*entity.ControlAssessment, error) {
	var out []*entity.ControlAssessment
	for _, ca := range r.assessed {
		if ca.AssessmentID == assessmentID {
			out = append(out, ca)
		}
	}
	return out, nil
}

func (r *stubAssessmentRepo) UpsertControlAssessment(_ context.Context, ca *entity.ControlAssessment) error {
	r.assessed[pairKey(ca.AssessmentID, ca.ControlID)] = ca
	return nil
}

type stubThreatRepo struct {
	models map[uuid.UUID]*entity.ThreatModel
}

func (r *stubThreatRepo) GetModel(_ context.Context, id uuid.UUID) (*entity.ThreatModel, error) {
	if m, ok := r.models[id]; ok {
		return m, nil
	}
	return nil, errors.Wrapf(entity.ErrNotFound, "threat model %s", id)
}

func (r *stubThreatRepo) GetThreat(_ context.Context, id uuid.UUID) (*entity.Threat, error) {
	return nil, errors.Wrapf(entity.ErrNotFound, "threat %s", id)
}

func (r *stubThreatRepo) ListThreats(_ context.Context, _ uuid.UUID) ([]*entity.Threat, error) {
	return nil, nil
}

func (r *stubThreatRepo) ListMitigations(_ context.Context, _ uuid.UUID) ([]*entity.Mitigation, error) {
	return nil, nil
}

func (r *stubThreatRepo) ListMitigationsByModel(_ context.Context, _ uuid.UUID) (map[uuid.UUID][]*entity.Mitigation, error) {
	return nil, nil
}

func (r *stubThreatRepo) UpdateThreat(_ context.Context, _ *entity.Threat) error         { return nil }
func (r *stubThreatRepo) UpdateMitigation(_ context.Context, _ *entity.Mitigation) error { return nil }

type stubRegisterRepo struct {
	entries map[uuid.UUID]*entity.RiskRegisterEntry
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{entries: make(map[uuid.UUID]*entity.RiskRegisterEntry)}
}

func (r *stubRegisterRepo) Get(_ context.Context, id uuid.UUID) (*entity.RiskRegisterEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, errors.Wrapf(entity.ErrNotFound, "register entry %s", id)
}

func (r *stubRegisterRepo) ListByAssessment(_ context.Context, assessmentID uuid.UUID) ([]*entity.RiskRegisterEntry, error) {
	var out []*entity.RiskRegisterEntry
	for _, e := range r.entries {
		if e.AssessmentID != nil && *e.AssessmentID == assessmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubRegisterRepo) ListOpenByControl(_ context.Context, assessmentID, controlID uuid.UUID) ([]*entity.RiskRegisterEntry, error) {
	var out []*entity.RiskRegisterEntry
	for _, e := range r.entries {
		if e.AssessmentID != nil && *e.AssessmentID == assessmentID &&
			e.ControlID != nil && *e.ControlID == controlID && e.Status.IsOpen() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubRegisterRepo) Create(_ context.Context, e *entity.RiskRegisterEntry) error {
	r.entries[e.ID] = e
	return nil
}

func (r *stubRegisterRepo) Update(_ context.Context, e *entity.RiskRegisterEntry) error {
	r.entries[e.ID] = e
	return nil
}

func (r *stubRegisterRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.entries, id)
	return nil
}

func (r *stubRegisterRepo) WithinTx(_ context.Context, _, _ uuid.UUID, fn func(repository.RegisterRepository) error) error {
	return fn(r)
}

type stubReportRepo struct {
	saved []*entity.ReportDocument
}

func (r *stubReportRepo) Save(_ context.Context, doc *entity.ReportDocument) error {
	r.saved = append(r.saved, doc)
	return nil
}

type recordingPublisher struct {
	statusEvents []service.ControlStatusEvent
	created      []string
	completed    []string
}

func (p *recordingPublisher) ControlStatusChanged(_ context.Context, ev service.ControlStatusEvent) error {
	p.statusEvents = append(p.statusEvents, ev)
	return nil
}

func (p *recordingPublisher) RegisterEntryCreated(_ context.Context, entryID string) error {
	p.created = append(p.created, entryID)
	return nil
}

func (p *recordingPublisher) RegisterEntryCompleted(_ context.Context, entryID string) error {
	p.completed = append(p.completed, entryID)
	return nil
}

type fixture struct {
	service     *PostureService
	assessments *stubAssessmentRepo
	registers   *stubRegisterRepo
	reports     *stubReportRepo
	publisher   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	assessments := newStubAssessmentRepo()
	threats := &stubThreatRepo{models: make(map[uuid.UUID]*entity.ThreatModel)}
	registers := newStubRegisterRepo()
	reports := &stubReportRepo{}
	publisher := &recordingPublisher{}

	aggregator := service.NewStatisticsAggregator(logger, assessments, threats, registers)
	lifecycle := service.NewRegisterLifecycle(logger, registers, service.DefaultRegisterDefaults())
	threatService := service.NewThreatService(logger, threats)
	generator := reporting.NewGenerator(logger, aggregator, assessments, threats, registers, "test")

	svc := NewPostureService(logger, assessments, reports, aggregator, lifecycle,
		threatService, generator, publisher, nil, metrics.NewCollector("test"))

	return &fixture{
		service:     svc,
		assessments: assessments,
		registers:   registers,
		reports:     reports,
		publisher:   publisher,
	}
}

func TestComputeRiskScorePresetDispatch(t *testing.T) {
	f := newFixture(t)

	// Score 10 buckets differently under the two presets.
	score, err := f.service.ComputeRiskScore(entity.RatingVeryHigh, entity.RatingLow, "")
	require.NoError(t, err)
	assert.Equal(t, 10, score.Score)
	assert.Equal(t, entity.RiskLevelMedium, score.Level)

	score, err = f.service.ComputeRiskScore(entity.RatingVeryHigh, entity.RatingLow, "register")
	require.NoError(t, err)
	assert.Equal(t, entity.RiskLevelHigh, score.Level)

	score, err = f.service.ComputeRiskScore(entity.RatingVeryHigh, entity.RatingLow, "assessment")
	require.NoError(t, err)
	assert.Equal(t, entity.RiskLevelMedium, score.Level)

	_, err = f.service.ComputeRiskScore(entity.RatingVeryHigh, entity.RatingLow, "legacy")
	require.Error(t, err)
	assert.True(t, entity.IsInvalidInput(err))
}

func TestApplyControlStatusCreatesRegisterEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assessmentID, controlID := uuid.New(), uuid.New()
	f.assessments.assessments[assessmentID] = &entity.Assessment{ID: assessmentID}
	f.assessments.controls[controlID] = &entity.Control{ID: controlID, Name: "MFA everywhere"}

	result, err := f.service.ApplyControlStatus(ctx, ApplyControlStatusInput{
		AssessmentID: assessmentID,
		ControlID:    controlID,
		Status:       entity.StatusAtRisk,
		AssessedBy:   "j.doe",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Entry)
	assert.Equal(t, entity.StatusAtRisk, result.Entry.Status)
	require.NotEmpty(t, result.Outcome.CreatedEntryID)

	// The write is observable through the repository.
	stored, err := f.assessments.GetControlAssessment(ctx, assessmentID, controlID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAtRisk, stored.Status)

	// Events were published for both the status change and the creation.
	require.Len(t, f.publisher.statusEvents, 1)
	assert.Equal(t, entity.StatusAtRisk, f.publisher.statusEvents[0].Current)
	assert.Equal(t, []string{result.Outcome.CreatedEntryID}, f.publisher.created)
}

func TestApplyControlStatusRecoveryCompletesEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assessmentID, controlID := uuid.New(), uuid.New()
	f.assessments.assessments[assessmentID] = &entity.Assessment{ID: assessmentID}
	f.assessments.controls[controlID] = &entity.Control{ID: controlID, Name: "MFA everywhere"}

	created, err := f.service.ApplyControlStatus(ctx, ApplyControlStatusInput{
		AssessmentID: assessmentID,
		ControlID:    controlID,
		Status:       entity.StatusAtRisk,
		AssessedBy:   "j.doe",
	})
	require.NoError(t, err)

	recovered, err := f.service.ApplyControlStatus(ctx, ApplyControlStatusInput{
		AssessmentID: assessmentID,
		ControlID:    controlID,
		Status:       entity.StatusFullyImplemented,
		AssessedBy:   "j.doe",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{created.Outcome.CreatedEntryID}, recovered.Outcome.CompletedEntryIDs)
	assert.Equal(t, []string{created.Outcome.CreatedEntryID}, f.publisher.completed)

	// The previous status came from the stored entry, not the request.
	require.Len(t, f.publisher.statusEvents, 2)
	assert.Equal(t, entity.StatusAtRisk, f.publisher.statusEvents[1].Previous)
}

func TestApplyControlStatusUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ApplyControlStatus(ctx, ApplyControlStatusInput{
		AssessmentID: uuid.New(),
		ControlID:    uuid.New(),
		Status:       entity.StatusAtRisk,
		AssessedBy:   "j.doe",
	})
	require.Error(t, err)
	assert.True(t, entity.IsNotFound(err))

	assessmentID := uuid.New()
	f.assessments.assessments[assessmentID] = &entity.Assessment{ID: assessmentID}
	_, err = f.service.ApplyControlStatus(ctx, ApplyControlStatusInput{
		AssessmentID: assessmentID,
		ControlID:    uuid.New(),
		Status:       entity.StatusAtRisk,
		AssessedBy:   "j.doe",
	})
	require.Error(t, err)
	assert.True(t, entity.IsNotFound(err))
}

func TestApplyControlStatusInvalidStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assessmentID, controlID := uuid.New(), uuid.New()
	f.assessments.assessments[assessmentID] = &entity.Assessment{ID: assessmentID}
	f.assessments.controls[controlID] = &entity.Control{ID: controlID}

	_, err := f.service.ApplyControlStatus(ctx, ApplyControlStatusInput{
		AssessmentID: assessmentID,
		ControlID:    controlID,
		Status:       "retired",
		AssessedBy:   "j.doe",
	})
	require.Error(t, err)
	assert.True(t, entity.IsInvalidInput(err))
}

func TestComputeStatisticsKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assessmentID := uuid.New()
	f.assessments.assessments[assessmentID] = &entity.Assessment{ID: assessmentID}

	stats, err := f.service.ComputeStatistics(ctx, assessmentID, KindAssessment)
	require.NoError(t, err)
	require.NotNil(t, stats.Assessment)
	assert.Nil(t, stats.ThreatModel)

	_, err = f.service.ComputeStatistics(ctx, assessmentID, "portfolio")
	require.Error(t, err)
	assert.True(t, entity.IsInvalidInput(err))

	_, err = f.service.ComputeStatistics(ctx, uuid.New(), KindThreatModel)
	require.Error(t, err)
	assert.True(t, entity.IsNotFound(err))
}

func TestGenerateReportPersistsDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assessmentID, controlID := uuid.New(), uuid.New()
	f.assessments.assessments[assessmentID] = &entity.Assessment{ID: assessmentID, Name: "ISO 27001"}
	f.assessments.controls[controlID] = &entity.Control{ID: controlID, Function: entity.FunctionDetect}

	_, err := f.service.ApplyControlStatus(ctx, ApplyControlStatusInput{
		AssessmentID: assessmentID,
		ControlID:    controlID,
		Status:       entity.StatusFullyImplemented,
		AssessedBy:   "j.doe",
	})
	require.NoError(t, err)

	doc, err := f.service.GenerateReport(ctx, assessmentID, KindAssessment, "Acme Corp")
	require.NoError(t, err)
	require.Len(t, f.reports.saved, 1)
	assert.Equal(t, doc.ID, f.reports.saved[0].ID)
	assert.NotEmpty(t, doc.Content)

	_, err = f.service.GenerateReport(ctx, assessmentID, "quarterly", "Acme Corp")
	require.Error(t, err)
	assert.True(t, entity.IsInvalidInput(err))
}

func TestGenerateReportEmptySubject(t *testing.T) {
	f := newFixture(t)

	assessmentID := uuid.New()
	f.assessments.assessments[assessmentID] = &entity.Assessment{ID: assessmentID}

	_, err := f.service.GenerateReport(context.Background(), assessmentID, KindAssessment, "Acme Corp")
	require.Error(t, err)
	assert.True(t, entity.IsEmptyDataset(err))
	assert.Empty(t, f.reports.saved)
}
