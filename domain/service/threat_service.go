package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/repository"
)

// ThreatService maintains threats and their derived risk values. Threat
// scoring uses the assessment threshold preset.
type ThreatService struct {
	logger     *zap.Logger
	threats    repository.ThreatRepository
	thresholds RiskThresholds
	now        func() time.Time
}

// NewThreatService creates a threat service.
func NewThreatService(logger *zap.Logger, threats repository.ThreatRepository) *ThreatService {
	return &ThreatService{
		logger:     logger,
		threats:    threats,
		thresholds: AssessmentThresholds,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *ThreatService) WithClock(now func() time.Time) *ThreatService {
	s.now = now
	return s
}

// UpdateThreat merges a partial update into the stored threat. Whenever
// likelihood or impact changes, the other half of the pair is taken from
// the stored record, never from a default, and score and level are
// recomputed from the merged pair.
func (s *ThreatService) UpdateThreat(ctx context.Context, id uuid.UUID, update entity.ThreatUpdate) (*entity.Threat, error) {
	t, err := s.threats.GetThreat(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "threat %s", id)
	}

	if update.Name != nil {
		t.Name = *update.Name
	}
	if update.Description != nil {
		t.Description = *update.Description
	}
	if update.Category != nil {
		if !update.Category.IsValid() {
			return nil, errors.Wrapf(entity.ErrInvalidInput, "unknown STRIDE category %q", string(*update.Category))
		}
		t.Category = *update.Category
	}
	if update.Status != nil {
		if !update.Status.IsValid() {
			return nil, errors.Wrapf(entity.ErrInvalidInput, "unknown threat status %q", string(*update.Status))
		}
		t.Status = *update.Status
	}

	if update.Likelihood != nil {
		t.Likelihood = *update.Likelihood
	}
	if update.Impact != nil {
		t.Impact = *update.Impact
	}
	if update.Likelihood != nil || update.Impact != nil {
		score, err := ComputeRiskScore(t.Likelihood, t.Impact, s.thresholds)
		if err != nil {
			return nil, err
		}
		t.RiskScore = score.Score
		t.RiskLevel = score.Level
	}

	t.UpdatedAt = s.now()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.threats.UpdateThreat(ctx, t); err != nil {
		return nil, errors.Wrapf(err, "update threat %s", id)
	}

	s.logger.Debug("threat updated",
		zap.String("threat_id", id.String()),
		zap.Int("risk_score", t.RiskScore),
		zap.String("risk_level", string(t.RiskLevel)))

	return t, nil
}

// SetMitigationStatus transitions a mitigation's status, stamping the
// completion time on the first transition into implemented or verified.
func (s *ThreatService) SetMitigationStatus(ctx context.Context, threatID, mitigationID uuid.UUID, status entity.MitigationStatus) (*entity.Mitigation, error) {
	if !status.IsValid() {
		return nil, errors.Wrapf(entity.ErrInvalidInput, "unknown mitigation status %q", string(status))
	}
	mitigations, err := s.threats.ListMitigations(ctx, threatID)
	if err != nil {
		return nil, errors.Wrapf(err, "threat %s", threatID)
	}
	for _, m := range mitigations {
		if m.ID != mitigationID {
			continue
		}
		m.SetStatus(status, s.now())
		if err := s.threats.UpdateMitigation(ctx, m); err != nil {
			return nil, errors.Wrapf(err, "update mitigation %s", mitigationID)
		}
		return m, nil
	}
	return nil, errors.Wrapf(entity.ErrNotFound, "mitigation %s", mitigationID)
}
