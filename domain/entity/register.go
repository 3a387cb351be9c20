package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RegisterStatus is the treatment state of a risk register entry.
type RegisterStatus string

const (
	RegisterStatusNotStarted RegisterStatus = "Not Started"
	RegisterStatusInProgress RegisterStatus = "In Progress"
	RegisterStatusCompleted  RegisterStatus = "Completed"
	RegisterStatusDeferred   RegisterStatus = "Deferred"
)

// RegisterStatusDisplayOrder is the fixed order register statuses appear in
// breakdowns.
var RegisterStatusDisplayOrder = []RegisterStatus{
	RegisterStatusNotStarted,
	RegisterStatusInProgress,
	RegisterStatusCompleted,
	RegisterStatusDeferred,
}

var registerStatuses = map[RegisterStatus]struct{}{
	RegisterStatusNotStarted: {},
	RegisterStatusInProgress: {},
	RegisterStatusCompleted:  {},
	RegisterStatusDeferred:   {},
}

// IsValid reports whether the status is a recognized register status.
func (s RegisterStatus) IsValid() bool {
	_, ok := registerStatuses[s]
	return ok
}

// IsOpen reports whether the entry still requires treatment. Completed and
// Deferred entries are retained but closed for lifecycle purposes.
func (s RegisterStatus) IsOpen() bool {
	return s == RegisterStatusNotStarted || s == RegisterStatusInProgress
}

// RiskRegisterEntry is an independently tracked risk record, auto-generated
// from at-risk control assessments or created manually. Entries are never
// auto-deleted.
type RiskRegisterEntry struct {
	ID      uuid.UUID `json:"id" db:"id"`
	EntryID string    `json:"entry_id" db:"entry_id"`

	AssessmentID *uuid.UUID `json:"assessment_id,omitempty" db:"assessment_id"`
	ControlID    *uuid.UUID `json:"control_id,omitempty" db:"control_id"`

	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	Likelihood Rating    `json:"likelihood" db:"likelihood"`
	Impact     Rating    `json:"impact" db:"impact"`
	RiskScore  int       `json:"risk_score" db:"risk_score"`
	RiskLevel  RiskLevel `json:"risk_level" db:"risk_level"`

	// Residual risk after mitigation. All four are nil until both residual
	// ratings have been supplied.
	ResidualLikelihood *Rating    `json:"residual_likelihood,omitempty" db:"residual_likelihood"`
	ResidualImpact     *Rating    `json:"residual_impact,omitempty" db:"residual_impact"`
	ResidualScore      *int       `json:"residual_score,omitempty" db:"residual_score"`
	ResidualLevel      *RiskLevel `json:"residual_level,omitempty" db:"residual_level"`

	Strategy MitigationStrategy `json:"strategy,omitempty" db:"strategy"`
	Owner    string             `json:"owner,omitempty" db:"owner"`
	Deadline *time.Time         `json:"deadline,omitempty" db:"deadline"`
	Status   RegisterStatus     `json:"status" db:"status"`
	Notes    string             `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate validates the register entry.
func (e *RiskRegisterEntry) Validate() error {
	if e.EntryID == "" {
		return errors.Wrap(ErrInvalidInput, "entry ID is required")
	}
	if e.Title == "" {
		return errors.Wrap(ErrInvalidInput, "title is required")
	}
	if !e.Likelihood.IsValid() {
		return errors.Wrapf(ErrInvalidInput, "unknown likelihood %q", string(e.Likelihood))
	}
	if !e.Impact.IsValid() {
		return errors.Wrapf(ErrInvalidInput, "unknown impact %q", string(e.Impact))
	}
	if !e.Status.IsValid() {
		return errors.Wrapf(ErrInvalidInput, "unknown register status %q", string(e.Status))
	}
	return nil
}

// IsOverdue reports whether the entry has passed its deadline while still
// open.
func (e *RiskRegisterEntry) IsOverdue(now time.Time) bool {
	return e.Deadline != nil && e.Deadline.Before(now) && e.Status.IsOpen()
}

// IsDueSoon reports whether the entry's deadline falls within the given
// window while still open.
func (e *RiskRegisterEntry) IsDueSoon(now time.Time, window time.Duration) bool {
	if e.Deadline == nil || !e.Status.IsOpen() {
		return false
	}
	return !e.Deadline.Before(now) && e.Deadline.Sub(now) <= window
}

// RegisterUpdate is a partial update to a register entry. Nil fields are
// left unchanged. Score and level are recomputed only when both members of
// the corresponding likelihood/impact pair are set after the merge; the pair
// semantics are explicit here rather than inferred from a generic field map.
type RegisterUpdate struct {
	Title       *string
	Description *string

	Likelihood *Rating
	Impact     *Rating

	ResidualLikelihood *Rating
	ResidualImpact     *Rating

	Strategy *MitigationStrategy
	Owner    *string
	Deadline *time.Time
	Status   *RegisterStatus
	Notes    *string
}
