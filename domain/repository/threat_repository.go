package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
)

// ThreatRepository provides access to threat models, their threats, and the
// mitigations attached to those threats.
type ThreatRepository interface {
	// GetModel returns the threat model or entity.ErrNotFound.
	GetModel(ctx context.Context, id uuid.UUID) (*entity.ThreatModel, error)

	// GetThreat returns the threat or entity.ErrNotFound.
	GetThreat(ctx context.Context, id uuid.UUID) (*entity.Threat, error)

	// ListThreats returns all threats belonging to a model.
	ListThreats(ctx context.Context, modelID uuid.UUID) ([]*entity.Threat, error)

	// ListMitigations returns all mitigations for one threat.
	ListMitigations(ctx context.Context, threatID uuid.UUID) ([]*entity.Mitigation, error)

	// ListMitigationsByModel returns all mitigations attached to any threat
	// in the model, keyed by threat ID.
	ListMitigationsByModel(ctx context.Context, modelID uuid.UUID) (map[uuid.UUID][]*entity.Mitigation, error)

	// UpdateThreat persists a threat after a partial update has been merged
	// and its score/level recomputed.
	UpdateThreat(ctx context.Context, threat *entity.Threat) error

	// UpdateMitigation persists a mitigation.
	UpdateMitigation(ctx context.Context, mitigation *entity.Mitigation) error
}
