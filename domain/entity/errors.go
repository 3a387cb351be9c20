package entity

import "github.com/pkg/errors"

// Failure classes surfaced by the assessment and reporting engine. The
// delivery layer maps these onto transport status codes; the domain layer
// only wraps them with context.
var (
	// ErrInvalidInput indicates a malformed enum value or out-of-range score.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a referenced assessment, model, control, or
	// register entry that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyDataset indicates a report was requested for a subject with no
	// assessable entities.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrConflictWrite indicates a concurrent register-entry mutation lost a
	// race and should be retried by the caller.
	ErrConflictWrite = errors.New("conflicting write")
)

// IsInvalidInput reports whether err belongs to the invalid-input class.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsNotFound reports whether err belongs to the not-found class.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsEmptyDataset reports whether err belongs to the empty-dataset class.
func IsEmptyDataset(err error) bool { return errors.Is(err, ErrEmptyDataset) }

// IsConflictWrite reports whether err belongs to the write-conflict class.
func IsConflictWrite(err error) bool { return errors.Is(err, ErrConflictWrite) }
