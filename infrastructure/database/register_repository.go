package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/repository"
)

const registerColumns = `id, entry_id, assessment_id, control_id, title, description,
	likelihood, impact, risk_score, risk_level,
	residual_likelihood, residual_impact, residual_score, residual_level,
	strategy, owner, deadline, status, notes, created_at, updated_at`

// PostgresRegisterRepository implements repository.RegisterRepository.
// Auto-transition serialization uses a transaction-scoped advisory lock on
// the (assessment, control) pair.
type PostgresRegisterRepository struct {
	db     sqlx.ExtContext
	root   *sqlx.DB
	logger *zap.Logger
}

// NewPostgresRegisterRepository creates the repository.
func NewPostgresRegisterRepository(db *sqlx.DB, logger *zap.Logger) *PostgresRegisterRepository {
	return &PostgresRegisterRepository{db: db, root: db, logger: logger}
}

func (r *PostgresRegisterRepository) Get(ctx context.Context, id uuid.UUID) (*entity.RiskRegisterEntry, error) {
	var e entity.RiskRegisterEntry
	err := sqlx.GetContext(ctx, r.db, &e,
		`SELECT `+registerColumns+` FROM risk_register_entries WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(entity.ErrNotFound, "register entry %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get register entry")
	}
	return &e, nil
}

func (r *PostgresRegisterRepository) ListByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]*entity.RiskRegisterEntry, error) {
	var entries []*entity.RiskRegisterEntry
	err := sqlx.SelectContext(ctx, r.db, &entries,
		`SELECT `+registerColumns+` FROM risk_register_entries
		 WHERE assessment_id = $1 ORDER BY created_at DESC`, assessmentID)
	if err != nil {
		return nil, errors.Wrap(err, "list register entries")
	}
	return entries, nil
}

func (r *PostgresRegisterRepository) ListOpenByControl(ctx context.Context, assessmentID, controlID uuid.UUID) ([]*entity.RiskRegisterEntry, error) {
	var entries []*entity.RiskRegisterEntry
	err := sqlx.SelectContext(ctx, r.db, &entries,
		`SELECT `+registerColumns+` FROM risk_register_entries
		 WHERE assessment_id = $1 AND control_id = $2 AND status IN ($3, $4)
		 ORDER BY created_at`,
		assessmentID, controlID, entity.RegisterStatusNotStarted, entity.RegisterStatusInProgress)
	if err != nil {
		return nil, errors.Wrap(err, "list open register entries")
	}
	return entries, nil
}

func (r *PostgresRegisterRepository) Create(ctx context.Context, e *entity.RiskRegisterEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO risk_register_entries (`+registerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		         $15, $16, $17, $18, $19, $20, $21)`,
		e.ID, e.EntryID, e.AssessmentID, e.ControlID, e.Title, e.Description,
		e.Likelihood, e.Impact, e.RiskScore, e.RiskLevel,
		e.ResidualLikelihood, e.ResidualImpact, e.ResidualScore, e.ResidualLevel,
		e.Strategy, e.Owner, e.Deadline, e.Status, e.Notes, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(entity.ErrConflictWrite, "register entry %s", e.EntryID)
		}
		return errors.Wrap(err, "create register entry")
	}

	r.logger.Debug("register entry created", zap.String("entry_id", e.EntryID))
	return nil
}

func (r *PostgresRegisterRepository) Update(ctx context.Context, e *entity.RiskRegisterEntry) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE risk_register_entries SET
		   title = $2, description = $3, likelihood = $4, impact = $5,
		   risk_score = $6, risk_level = $7,
		   residual_likelihood = $8, residual_impact = $9,
		   residual_score = $10, residual_level = $11,
		   strategy = $12, owner = $13, deadline = $14, status = $15, notes = $16,
		   updated_at = $17
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Likelihood, e.Impact,
		e.RiskScore, e.RiskLevel,
		e.ResidualLikelihood, e.ResidualImpact, e.ResidualScore, e.ResidualLevel,
		e.Strategy, e.Owner, e.Deadline, e.Status, e.Notes, e.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update register entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(entity.ErrNotFound, "register entry %s", e.ID)
	}
	return nil
}

func (r *PostgresRegisterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM risk_register_entries WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete register entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(entity.ErrNotFound, "register entry %s", id)
	}
	return nil
}

// WithinTx runs fn against a transactional copy of the repository after
// taking a transaction-scoped advisory lock on the (assessment, control)
// pair, so concurrent auto transitions for the same control serialize.
func (r *PostgresRegisterRepository) WithinTx(ctx context.Context, assessmentID, controlID uuid.UUID, fn func(repository.RegisterRepository) error) error {
	tx, err := r.root.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lockKey := assessmentID.String() + ":" + controlID.String()
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return errors.Wrap(err, "acquire pair lock")
	}

	txRepo := &PostgresRegisterRepository{db: tx, root: r.root, logger: r.logger}
	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return errors.Wrap(entity.ErrConflictWrite, "commit register transaction")
		}
		return errors.Wrap(err, "commit register transaction")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
