package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
)

// PostgresThreatRepository implements repository.ThreatRepository.
type PostgresThreatRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresThreatRepository creates the repository.
func NewPostgresThreatRepository(db *sqlx.DB, logger *zap.Logger) *PostgresThreatRepository {
	return &PostgresThreatRepository{db: db, logger: logger}
}

func (r *PostgresThreatRepository) GetModel(ctx context.Context, id uuid.UUID) (*entity.ThreatModel, error) {
	var m entity.ThreatModel
	err := r.db.GetContext(ctx, &m,
		`SELECT id, organization_id, name, description, scope, status, created_at, updated_at
		 FROM threat_models WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(entity.ErrNotFound, "threat model %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get threat model")
	}
	return &m, nil
}

func (r *PostgresThreatRepository) GetThreat(ctx context.Context, id uuid.UUID) (*entity.Threat, error) {
	var t entity.Threat
	err := r.db.GetContext(ctx, &t,
		`SELECT id, model_id, asset_id, name, description, category, likelihood, impact,
		        risk_score, risk_level, status, created_at, updated_at
		 FROM threats WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(entity.ErrNotFound, "threat %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get threat")
	}
	return &t, nil
}

func (r *PostgresThreatRepository) ListThreats(ctx context.Context, modelID uuid.UUID) ([]*entity.Threat, error) {
	var threats []*entity.Threat
	err := r.db.SelectContext(ctx, &threats,
		`SELECT id, model_id, asset_id, name, description, category, likelihood, impact,
		        risk_score, risk_level, status, created_at, updated_at
		 FROM threats WHERE model_id = $1 ORDER BY risk_score DESC, updated_at DESC`,
		modelID)
	if err != nil {
		return nil, errors.Wrap(err, "list threats")
	}
	return threats, nil
}

func (r *PostgresThreatRepository) ListMitigations(ctx context.Context, threatID uuid.UUID) ([]*entity.Mitigation, error) {
	var mitigations []*entity.Mitigation
	err := r.db.SelectContext(ctx, &mitigations,
		`SELECT id, threat_id, name, description, strategy, status, priority, effectiveness,
		        cost_estimate, owner, target_date, completed_at, created_at, updated_at
		 FROM mitigations WHERE threat_id = $1 ORDER BY created_at`,
		threatID)
	if err != nil {
		return nil, errors.Wrap(err, "list mitigations")
	}
	return mitigations, nil
}

func (r *PostgresThreatRepository) ListMitigationsByModel(ctx context.Context, modelID uuid.UUID) (map[uuid.UUID][]*entity.Mitigation, error) {
	var mitigations []*entity.Mitigation
	err := r.db.SelectContext(ctx, &mitigations,
		`SELECT m.id, m.threat_id, m.name, m.description, m.strategy, m.status, m.priority,
		        m.effectiveness, m.cost_estimate, m.owner, m.target_date, m.completed_at,
		        m.created_at, m.updated_at
		 FROM mitigations m
		 JOIN threats t ON t.id = m.threat_id
		 WHERE t.model_id = $1 ORDER BY m.created_at`,
		modelID)
	if err != nil {
		return nil, errors.Wrap(err, "list mitigations by model")
	}

	byThreat := make(map[uuid.UUID][]*entity.Mitigation)
	for _, m := range mitigations {
		byThreat[m.ThreatID] = append(byThreat[m.ThreatID], m)
	}
	return byThreat, nil
}

func (r *PostgresThreatRepository) UpdateThreat(ctx context.Context, t *entity.Threat) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE threats SET
		   name = $2, description = $3, category = $4, likelihood = $5, impact = $6,
		   risk_score = $7, risk_level = $8, status = $9, updated_at = $10
		 WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Category, t.Likelihood, t.Impact,
		t.RiskScore, t.RiskLevel, t.Status, t.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update threat")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(entity.ErrNotFound, "threat %s", t.ID)
	}

	r.logger.Debug("threat updated",
		zap.String("threat_id", t.ID.String()),
		zap.Int("risk_score", t.RiskScore))
	return nil
}

func (r *PostgresThreatRepository) UpdateMitigation(ctx context.Context, m *entity.Mitigation) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE mitigations SET
		   name = $2, description = $3, strategy = $4, status = $5, priority = $6,
		   effectiveness = $7, cost_estimate = $8, owner = $9, target_date = $10,
		   completed_at = $11, updated_at = $12
		 WHERE id = $1`,
		m.ID, m.Name, m.Description, m.Strategy, m.Status, m.Priority,
		m.Effectiveness, m.CostEstimate, m.Owner, m.TargetDate, m.CompletedAt, m.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update mitigation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(entity.ErrNotFound, "mitigation %s", m.ID)
	}
	return nil
}
