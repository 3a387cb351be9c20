package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/repository"
	"github.com/KulbirJ/compliance-platform-sub000/domain/service"
	"github.com/KulbirJ/compliance-platform-sub000/infrastructure/reporting"
	"github.com/KulbirJ/compliance-platform-sub000/pkg/metrics"
)

// SubjectKind selects which subject a statistics or report request targets.
type SubjectKind string

const (
	KindAssessment  SubjectKind = "assessment"
	KindThreatModel SubjectKind = "threatModel"
)

// EventPublisher emits engine events to the message bus. Publishing is
// best-effort from the caller's point of view: a publish failure never
// fails the triggering operation.
type EventPublisher interface {
	ControlStatusChanged(ctx context.Context, ev service.ControlStatusEvent) error
	RegisterEntryCreated(ctx context.Context, entryID string) error
	RegisterEntryCompleted(ctx context.Context, entryID string) error
}

// StatisticsCache is a read-through cache for computed rollups. A cache
// failure is treated as a miss.
type StatisticsCache interface {
	GetAssessment(ctx context.Context, id uuid.UUID) (*service.AssessmentStatistics, error)
	SetAssessment(ctx context.Context, stats *service.AssessmentStatistics) error
	InvalidateAssessment(ctx context.Context, id uuid.UUID) error
	GetThreatModel(ctx context.Context, id uuid.UUID) (*service.ThreatModelStatistics, error)
	SetThreatModel(ctx context.Context, stats *service.ThreatModelStatistics) error
	InvalidateThreatModel(ctx context.Context, id uuid.UUID) error
}

// Statistics is the union result of ComputeStatistics; exactly one field is
// set, according to the requested kind.
type Statistics struct {
	Assessment  *service.AssessmentStatistics  `json:"assessment,omitempty"`
	ThreatModel *service.ThreatModelStatistics `json:"threat_model,omitempty"`
}

// ApplyControlStatusInput carries one control (re-)assessment.
type ApplyControlStatusInput struct {
	AssessmentID    uuid.UUID
	ControlID       uuid.UUID
	Status          entity.ImplementationStatus
	MaturityLevel   int
	ComplianceScore *float64
	Notes           string
	Recommendations string
	AssessedBy      string
}

// ApplyControlStatusResult is the updated entry plus whatever the register
// lifecycle did in response.
type ApplyControlStatusResult struct {
	Entry   *entity.ControlAssessment `json:"entry"`
	Outcome *service.LifecycleOutcome `json:"outcome"`
}

// PostureService exposes the four engine operations to the delivery layer.
type PostureService struct {
	logger      *zap.Logger
	assessments repository.AssessmentRepository
	reports     repository.ReportRepository
	aggregator  *service.StatisticsAggregator
	lifecycle   *service.RegisterLifecycle
	threats     *service.ThreatService
	generator   *reporting.Generator
	publisher   EventPublisher
	cache       StatisticsCache
	collector   *metrics.Collector
	now         func() time.Time
}

// NewPostureService wires the engine together. publisher and cache may be
// nil; the service degrades to direct computation and no events.
func NewPostureService(
	logger *zap.Logger,
	assessments repository.AssessmentRepository,
	reports repository.ReportRepository,
	aggregator *service.StatisticsAggregator,
	lifecycle *service.RegisterLifecycle,
	threats *service.ThreatService,
	generator *reporting.Generator,
	publisher EventPublisher,
	cache StatisticsCache,
	collector *metrics.Collector,
) *PostureService {
	return &PostureService{
		logger:      logger,
		assessments: assessments,
		reports:     reports,
		aggregator:  aggregator,
		lifecycle:   lifecycle,
		threats:     threats,
		generator:   generator,
		publisher:   publisher,
		cache:       cache,
		collector:   collector,
		now:         time.Now,
	}
}

// ComputeRiskScore scores one likelihood/impact pair under a named
// threshold preset. An empty preset name selects the assessment table.
func (s *PostureService) ComputeRiskScore(likelihood, impact entity.Rating, preset string) (service.RiskScore, error) {
	thresholds := service.AssessmentThresholds
	switch preset {
	case "", service.AssessmentThresholds.Name:
	case service.RegisterThresholds.Name:
		thresholds = service.RegisterThresholds
	default:
		return service.RiskScore{}, errors.Wrapf(entity.ErrInvalidInput, "unknown threshold preset %q", preset)
	}

	score, err := service.ComputeRiskScore(likelihood, impact, thresholds)
	s.record("compute_risk_score", err)
	return score, err
}

// ComputeStatistics returns the rollup for one subject, read through the
// cache when one is configured.
func (s *PostureService) ComputeStatistics(ctx context.Context, subjectID uuid.UUID, kind SubjectKind) (*Statistics, error) {
	switch kind {
	case KindAssessment:
		if s.cache != nil {
			if cached, err := s.cache.GetAssessment(ctx, subjectID); err == nil && cached != nil {
				s.collector.CacheOperations.WithLabelValues("get", "hit").Inc()
				return &Statistics{Assessment: cached}, nil
			}
			s.collector.CacheOperations.WithLabelValues("get", "miss").Inc()
		}
		stats, err := s.aggregator.AssessmentStatistics(ctx, subjectID)
		s.record("compute_statistics", err)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetAssessment(ctx, stats); err != nil {
				s.logger.Warn("failed to cache assessment statistics", zap.Error(err))
			}
		}
		return &Statistics{Assessment: stats}, nil

	case KindThreatModel:
		if s.cache != nil {
			if cached, err := s.cache.GetThreatModel(ctx, subjectID); err == nil && cached != nil {
				s.collector.CacheOperations.WithLabelValues("get", "hit").Inc()
				return &Statistics{ThreatModel: cached}, nil
			}
			s.collector.CacheOperations.WithLabelValues("get", "miss").Inc()
		}
		stats, err := s.aggregator.ThreatModelStatistics(ctx, subjectID)
		s.record("compute_statistics", err)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetThreatModel(ctx, stats); err != nil {
				s.logger.Warn("failed to cache threat model statistics", zap.Error(err))
			}
		}
		return &Statistics{ThreatModel: stats}, nil

	default:
		return nil, errors.Wrapf(entity.ErrInvalidInput, "unknown subject kind %q", string(kind))
	}
}

// ApplyControlStatus upserts one control assessment entry and feeds the
// resulting status-change event through the register lifecycle.
func (s *PostureService) ApplyControlStatus(ctx context.Context, in ApplyControlStatusInput) (*ApplyControlStatusResult, error) {
	if _, err := s.assessments.GetAssessment(ctx, in.AssessmentID); err != nil {
		return nil, errors.Wrapf(err, "assessment %s", in.AssessmentID)
	}
	control, err := s.assessments.GetControl(ctx, in.ControlID)
	if err != nil {
		return nil, errors.Wrapf(err, "control %s", in.ControlID)
	}

	previous := entity.ImplementationStatus("")
	if existing, err := s.assessments.GetControlAssessment(ctx, in.AssessmentID, in.ControlID); err == nil {
		previous = existing.Status
	} else if !entity.IsNotFound(err) {
		return nil, errors.Wrap(err, "read prior control assessment")
	}

	now := s.now()
	ca := &entity.ControlAssessment{
		ID:              uuid.New(),
		AssessmentID:    in.AssessmentID,
		ControlID:       in.ControlID,
		Status:          in.Status,
		MaturityLevel:   in.MaturityLevel,
		ComplianceScore: in.ComplianceScore,
		Notes:           in.Notes,
		Recommendations: in.Recommendations,
		AssessedBy:      in.AssessedBy,
		AssessedAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := ca.Validate(); err != nil {
		s.record("apply_control_status", err)
		return nil, err
	}
	if err := s.assessments.UpsertControlAssessment(ctx, ca); err != nil {
		s.record("apply_control_status", err)
		return nil, errors.Wrap(err, "upsert control assessment")
	}

	ev := service.ControlStatusEvent{
		AssessmentID:       in.AssessmentID,
		ControlID:          in.ControlID,
		Previous:           previous,
		Current:            in.Status,
		Notes:              in.Notes,
		ControlName:        control.Name,
		ControlDescription: control.Description,
		Actor:              in.AssessedBy,
		OccurredAt:         now,
	}

	outcome, err := s.lifecycle.HandleControlStatus(ctx, ev)
	s.record("apply_control_status", err)
	if err != nil {
		return nil, err
	}

	if outcome.CreatedEntryID != "" {
		s.collector.RegisterTransitions.WithLabelValues("auto_create").Inc()
	}
	if len(outcome.CompletedEntryIDs) > 0 {
		s.collector.RegisterTransitions.WithLabelValues("auto_complete").Inc()
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAssessment(ctx, in.AssessmentID); err != nil {
			s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
		}
	}

	s.publish(ctx, ev, outcome)

	return &ApplyControlStatusResult{Entry: ca, Outcome: outcome}, nil
}

// publish emits events best-effort; failures are logged, never propagated.
func (s *PostureService) publish(ctx context.Context, ev service.ControlStatusEvent, outcome *service.LifecycleOutcome) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.ControlStatusChanged(ctx, ev); err != nil {
		s.logger.Warn("failed to publish control status event", zap.Error(err))
	}
	if outcome.CreatedEntryID != "" {
		if err := s.publisher.RegisterEntryCreated(ctx, outcome.CreatedEntryID); err != nil {
			s.logger.Warn("failed to publish register entry created event", zap.Error(err))
		}
	}
	for _, id := range outcome.CompletedEntryIDs {
		if err := s.publisher.RegisterEntryCompleted(ctx, id); err != nil {
			s.logger.Warn("failed to publish register entry completed event", zap.Error(err))
		}
	}
}

// UpdateRegisterEntry applies a manual partial update to one register
// entry. Statistics for the owning assessment are invalidated because the
// rollup counts open entries and levels.
func (s *PostureService) UpdateRegisterEntry(ctx context.Context, id uuid.UUID, update entity.RegisterUpdate) (*entity.RiskRegisterEntry, error) {
	e, err := s.lifecycle.UpdateEntry(ctx, id, update)
	s.record("update_register_entry", err)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && e.AssessmentID != nil {
		if err := s.cache.InvalidateAssessment(ctx, *e.AssessmentID); err != nil {
			s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
		}
	}
	return e, nil
}

// DeleteRegisterEntry removes one register entry permanently.
func (s *PostureService) DeleteRegisterEntry(ctx context.Context, id uuid.UUID) error {
	e, err := s.lifecycle.DeleteEntry(ctx, id)
	s.record("delete_register_entry", err)
	if err != nil {
		return err
	}
	if s.cache != nil && e.AssessmentID != nil {
		if err := s.cache.InvalidateAssessment(ctx, *e.AssessmentID); err != nil {
			s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
		}
	}
	return nil
}

// UpdateThreat merges a partial update into one threat, recomputing its
// score from the merged likelihood/impact pair.
func (s *PostureService) UpdateThreat(ctx context.Context, id uuid.UUID, update entity.ThreatUpdate) (*entity.Threat, error) {
	t, err := s.threats.UpdateThreat(ctx, id, update)
	s.record("update_threat", err)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateThreatModel(ctx, t.ModelID); err != nil {
			s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
		}
	}
	return t, nil
}

// SetMitigationStatus transitions one mitigation's status.
func (s *PostureService) SetMitigationStatus(ctx context.Context, threatID, mitigationID uuid.UUID, status entity.MitigationStatus) (*entity.Mitigation, error) {
	m, err := s.threats.SetMitigationStatus(ctx, threatID, mitigationID, status)
	s.record("set_mitigation_status", err)
	return m, err
}

// GenerateReport builds, persists, and returns the report document for one
// subject.
func (s *PostureService) GenerateReport(ctx context.Context, subjectID uuid.UUID, kind SubjectKind, orgName string) (*entity.ReportDocument, error) {
	started := s.now()

	var (
		doc *entity.ReportDocument
		err error
	)
	switch kind {
	case KindAssessment:
		doc, err = s.generator.GenerateAssessmentReport(ctx, subjectID, orgName)
	case KindThreatModel:
		doc, err = s.generator.GenerateThreatModelReport(ctx, subjectID, orgName)
	default:
		err = errors.Wrapf(entity.ErrInvalidInput, "unknown subject kind %q", string(kind))
	}
	s.record("generate_report", err)
	if err != nil {
		return nil, err
	}

	s.collector.ReportDuration.Observe(s.now().Sub(started).Seconds())
	s.collector.ReportSizeBytes.Observe(float64(doc.SizeBytes))

	if err := s.reports.Save(ctx, doc); err != nil {
		return nil, errors.Wrap(err, "persist report document")
	}
	return doc, nil
}

func (s *PostureService) record(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.collector.RecordOperation(operation, outcome)
}
