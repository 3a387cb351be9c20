package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
)

// RegisterRepository persists risk register entries. Mutations performed
// inside WithinTx for the same (assessment, control) pair are serialized by
// the storage layer; a lost race surfaces as entity.ErrConflictWrite.
type RegisterRepository interface {
	// Get returns the entry by internal ID, or entity.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*entity.RiskRegisterEntry, error)

	// ListByAssessment returns all entries linked to an assessment.
	ListByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]*entity.RiskRegisterEntry, error)

	// ListOpenByControl returns the open (Not Started / In Progress) entries
	// for the (assessment, control) pair.
	ListOpenByControl(ctx context.Context, assessmentID, controlID uuid.UUID) ([]*entity.RiskRegisterEntry, error)

	// Create persists a new entry.
	Create(ctx context.Context, e *entity.RiskRegisterEntry) error

	// Update persists an existing entry.
	Update(ctx context.Context, e *entity.RiskRegisterEntry) error

	// Delete removes an entry permanently.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithinTx runs fn against a transactional view of the repository,
	// locking the (assessment, control) pair for the duration so that
	// auto-create and auto-mitigate cannot interleave.
	WithinTx(ctx context.Context, assessmentID, controlID uuid.UUID, fn func(RegisterRepository) error) error
}
