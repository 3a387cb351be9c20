package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/repository"
)

// In-memory repository fakes shared by the service tests.

type fakeAssessmentRepo struct {
	mu          sync.Mutex
	assessments map[uuid.UUID]*entity.Assessment
	orgs        map[uuid.UUID]*entity.Organization
	controls    []*entity.Control
	assessed    map[uuid.UUID]map[uuid.UUID]*entity.ControlAssessment
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{
		assessments: make(map[uuid.UUID]*entity.Assessment),
		orgs:        make(map[uuid.UUID]*entity.Organization),
		assessed:    make(map[uuid.UUID]map[uuid.UUID]*entity.ControlAssessment),
	}
}

func (r *fakeAssessmentRepo) GetAssessment(_ context.Context, id uuid.UUID) (*entity.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok {
		return nil, errors.Wrapf(entity.ErrNotFound, "assessment %s", id)
	}
	return a, nil
}

func (r *fakeAssessmentRepo) GetOrganization(_ context.Context, id uuid.UUID) (*entity.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[id]
	if !ok {
		return nil, errors.Wrapf(entity.ErrNotFound, "organization %s", id)
	}
	return o, nil
}

func (r *fakeAssessmentRepo) GetControl(_ context.Context, id uuid.UUID) (*entity.Control, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.controls {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.Wrapf(entity.ErrNotFound, "control %s", id)
}

func (r *fakeAssessmentRepo) ListControls(_ context.Context) ([]*entity.Control, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Control(nil), r.controls...), nil
}

func (r *fakeAssessmentRepo) CountControls(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controls), nil
}

func (r *fakeAssessmentRepo) GetControlAssessment(_ context.Context, assessmentID, controlID uuid.UUID) (*entity.ControlAssessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ca, ok := r.assessed[assessmentID][controlID]; ok {
		return ca, nil
	}
	return nil, errors.Wrapf(entity.ErrNotFound, "control assessment %s/%s", assessmentID, controlID)
}

func (r *fakeAssessmentRepo) ListControlAssessments(_ context.Context, assessmentID uuid.UUID) ([]*entity.ControlAssessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ControlAssessment
	for _, ca := range r.assessed[assessmentID] {
		out = append(out, ca)
	}
	return out, nil
}

func (r *fakeAssessmentRepo) UpsertControlAssessment(_ context.Context, ca *entity.ControlAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assessed[ca.AssessmentID] == nil {
		r.assessed[ca.AssessmentID] = make(map[uuid.UUID]*entity.ControlAssessment)
	}
	r.assessed[ca.AssessmentID][ca.ControlID] = ca
	return nil
}

type fakeThreatRepo struct {
	mu          sync.Mutex
	models      map[uuid.UUID]*entity.ThreatModel
	threats     map[uuid.UUID]*entity.Threat
	mitigations map[uuid.UUID][]*entity.Mitigation
}

func newFakeThreatRepo() *fakeThreatRepo {
	return &fakeThreatRepo{
		models:      make(map[uuid.UUID]*entity.ThreatModel),
		threats:     make(map[uuid.UUID]*entity.Threat),
		mitigations: make(map[uuid.UUID][]*entity.Mitigation),
	}
}

func (r *fakeThreatRepo) GetModel(_ context.Context, id uuid.UUID) (*entity.ThreatModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[id]
	if !ok {
		return nil, errors.Wrapf(entity.ErrNotFound, "threat model %s", id)
	}
	return m, nil
}

func (r *fakeThreatRepo) GetThreat(_ context.Context, id uuid.UUID) (*entity.Threat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threats[id]
	if !ok {
		return nil, errors.Wrapf(entity.ErrNotFound, "threat %s", id)
	}
	copied := *t
	return &copied, nil
}

func (r *fakeThreatRepo) ListThreats(_ context.Context, modelID uuid.UUID) ([]*entity.Threat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Threat
	for _, t := range r.threats {
		if t.ModelID == modelID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeThreatRepo) ListMitigations(_ context.Context, threatID uuid.UUID) ([]*entity.Mitigation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Mitigation(nil), r.mitigations[threatID]...), nil
}

func (r *fakeThreatRepo) ListMitigationsByModel(_ context.Context, modelID uuid.UUID) (map[uuid.UUID][]*entity.Mitigation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID][]*entity.Mitigation)
	for threatID, ms := range r.mitigations {
		if t, ok := r.threats[threatID]; ok && t.ModelID == modelID {
			out[threatID] = append([]*entity.Mitigation(nil), ms...)
		}
	}
	return out, nil
}

func (r *fakeThreatRepo) UpdateThreat(_ context.Context, threat *entity.Threat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threats[threat.ID]; !ok {
		return errors.Wrapf(entity.ErrNotFound, "threat %s", threat.ID)
	}
	copied := *threat
	r.threats[threat.ID] = &copied
	return nil
}

func (r *fakeThreatRepo) UpdateMitigation(_ context.Context, mitigation *entity.Mitigation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.mitigations[mitigation.ThreatID] {
		if m.ID == mitigation.ID {
			r.mitigations[mitigation.ThreatID][i] = mitigation
			return nil
		}
	}
	return errors.Wrapf(entity.ErrNotFound, "mitigation %s", mitigation.ID)
}

type fakeRegisterRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entity.RiskRegisterEntry
}

func newFakeRegisterRepo() *fakeRegisterRepo {
	return &fakeRegisterRepo{entries: make(map[uuid.UUID]*entity.RiskRegisterEntry)}
}

func (r *fakeRegisterRepo) Get(_ context.Context, id uuid.UUID) (*entity.RiskRegisterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, errors.Wrapf(entity.ErrNotFound, "register entry %s", id)
	}
	copied := *e
	return &copied, nil
}

func (r *fakeRegisterRepo) ListByAssessment(_ context.Context, assessmentID uuid.UUID) ([]*entity.RiskRegisterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RiskRegisterEntry
	for _, e := range r.entries {
		if e.AssessmentID != nil && *e.AssessmentID == assessmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRegisterRepo) ListOpenByControl(_ context.Context, assessmentID, controlID uuid.UUID) ([]*entity.RiskRegisterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RiskRegisterEntry
	for _, e := range r.entries {
		if e.AssessmentID != nil && *e.AssessmentID == assessmentID &&
			e.ControlID != nil && *e.ControlID == controlID && e.Status.IsOpen() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRegisterRepo) Create(_ context.Context, e *entity.RiskRegisterEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *e
	r.entries[e.ID] = &copied
	return nil
}

func (r *fakeRegisterRepo) Update(_ context.Context, e *entity.RiskRegisterEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID]; !ok {
		return errors.Wrapf(entity.ErrNotFound, "register entry %s", e.ID)
	}
	copied := *e
	r.entries[e.ID] = &copied
	return nil
}

func (r *fakeRegisterRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return errors.Wrapf(entity.ErrNotFound, "register entry %s", id)
	}
	delete(r.entries, id)
	return nil
}

func (r *fakeRegisterRepo) WithinTx(_ context.Context, _, _ uuid.UUID, fn func(repository.RegisterRepository) error) error {
	return fn(r)
}
