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

// PostgresAssessmentRepository implements repository.AssessmentRepository.
type PostgresAssessmentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresAssessmentRepository creates the repository.
func NewPostgresAssessmentRepository(db *sqlx.DB, logger *zap.Logger) *PostgresAssessmentRepository {
	return &PostgresAssessmentRepository{db: db, logger: logger}
}

func (r *PostgresAssessmentRepository) GetAssessment(ctx context.Context, id uuid.UUID) (*entity.Assessment, error) {
	var a entity.Assessment
	err := r.db.GetContext(ctx, &a,
		`SELECT id, organization_id, name, framework, status, created_at, updated_at
		 FROM assessments WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(entity.ErrNotFound, "assessment %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get assessment")
	}
	return &a, nil
}

func (r *PostgresAssessmentRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*entity.Organization, error) {
	var o entity.Organization
	err := r.db.GetContext(ctx, &o, `SELECT id, name FROM organizations WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(entity.ErrNotFound, "organization %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get organization")
	}
	return &o, nil
}

func (r *PostgresAssessmentRepository) GetControl(ctx context.Context, id uuid.UUID) (*entity.Control, error) {
	var c entity.Control
	err := r.db.GetContext(ctx, &c,
		`SELECT id, code, name, description, function, category FROM controls WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(entity.ErrNotFound, "control %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get control")
	}
	return &c, nil
}

func (r *PostgresAssessmentRepository) ListControls(ctx context.Context) ([]*entity.Control, error) {
	var controls []*entity.Control
	err := r.db.SelectContext(ctx, &controls,
		`SELECT id, code, name, description, function, category FROM controls ORDER BY code`)
	if err != nil {
		return nil, errors.Wrap(err, "list controls")
	}
	return controls, nil
}

func (r *PostgresAssessmentRepository) CountControls(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM controls`); err != nil {
		return 0, errors.Wrap(err, "count controls")
	}
	return count, nil
}

func (r *PostgresAssessmentRepository) GetControlAssessment(ctx context.Context, assessmentID, controlID uuid.UUID) (*entity.ControlAssessment, error) {
	var ca entity.ControlAssessment
	err := r.db.GetContext(ctx, &ca,
		`SELECT id, assessment_id, control_id, status, maturity_level, compliance_score,
		        notes, recommendations, assessed_by, assessed_at, created_at, updated_at
		 FROM control_assessments WHERE assessment_id = $1 AND control_id = $2`,
		assessmentID, controlID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(entity.ErrNotFound, "control assessment (%s, %s)", assessmentID, controlID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get control assessment")
	}
	return &ca, nil
}

func (r *PostgresAssessmentRepository) ListControlAssessments(ctx context.Context, assessmentID uuid.UUID) ([]*entity.ControlAssessment, error) {
	var entries []*entity.ControlAssessment
	err := r.db.SelectContext(ctx, &entries,
		`SELECT id, assessment_id, control_id, status, maturity_level, compliance_score,
		        notes, recommendations, assessed_by, assessed_at, created_at, updated_at
		 FROM control_assessments WHERE assessment_id = $1 ORDER BY assessed_at DESC`,
		assessmentID)
	if err != nil {
		return nil, errors.Wrap(err, "list control assessments")
	}
	return entries, nil
}

// UpsertControlAssessment overwrites the entry keyed by the
// (assessment_id, control_id) pair, preserving the original row identity
// and creation time on conflict.
func (r *PostgresAssessmentRepository) UpsertControlAssessment(ctx context.Context, ca *entity.ControlAssessment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO control_assessments
		   (id, assessment_id, control_id, status, maturity_level, compliance_score,
		    notes, recommendations, assessed_by, assessed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (assessment_id, control_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   maturity_level = EXCLUDED.maturity_level,
		   compliance_score = EXCLUDED.compliance_score,
		   notes = EXCLUDED.notes,
		   recommendations = EXCLUDED.recommendations,
		   assessed_by = EXCLUDED.assessed_by,
		   assessed_at = EXCLUDED.assessed_at,
		   updated_at = EXCLUDED.updated_at`,
		ca.ID, ca.AssessmentID, ca.ControlID, ca.Status, ca.MaturityLevel, ca.ComplianceScore,
		ca.Notes, ca.Recommendations, ca.AssessedBy, ca.AssessedAt, ca.CreatedAt, ca.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "upsert control assessment")
	}

	r.logger.Debug("control assessment upserted",
		zap.String("assessment_id", ca.AssessmentID.String()),
		zap.String("control_id", ca.ControlID.String()),
		zap.String("status", string(ca.Status)))
	return nil
}
