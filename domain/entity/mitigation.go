package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MitigationStrategy is the risk treatment approach for a mitigation.
type MitigationStrategy string

const (
	StrategyEliminate MitigationStrategy = "eliminate"
	StrategyReduce    MitigationStrategy = "reduce"
	StrategyTransfer  MitigationStrategy = "transfer"
	StrategyAccept    MitigationStrategy = "accept"
)

var mitigationStrategies = map[MitigationStrategy]struct{}{
	StrategyEliminate: {},
	StrategyReduce:    {},
	StrategyTransfer:  {},
	StrategyAccept:    {},
}

// IsValid reports whether the strategy is a recognized treatment approach.
func (s MitigationStrategy) IsValid() bool {
	_, ok := mitigationStrategies[s]
	return ok
}

// MitigationStatus represents the implementation state of a mitigation.
type MitigationStatus string

const (
	MitigationStatusProposed    MitigationStatus = "proposed"
	MitigationStatusApproved    MitigationStatus = "approved"
	MitigationStatusInProgress  MitigationStatus = "in_progress"
	MitigationStatusImplemented MitigationStatus = "implemented"
	MitigationStatusVerified    MitigationStatus = "verified"
	MitigationStatusRejected    MitigationStatus = "rejected"
)

// MitigationStatusDisplayOrder is the fixed order statuses appear in
// breakdowns.
var MitigationStatusDisplayOrder = []MitigationStatus{
	MitigationStatusProposed,
	MitigationStatusApproved,
	MitigationStatusInProgress,
	MitigationStatusImplemented,
	MitigationStatusVerified,
	MitigationStatusRejected,
}

// IsValid reports whether the status is a recognized mitigation status.
func (s MitigationStatus) IsValid() bool {
	for _, v := range MitigationStatusDisplayOrder {
		if v == s {
			return true
		}
	}
	return false
}

// IsImplemented reports whether the mitigation is in effect.
func (s MitigationStatus) IsImplemented() bool {
	return s == MitigationStatusImplemented || s == MitigationStatusVerified
}

// IsTerminal reports whether the status excludes the mitigation from
// overdue detection.
func (s MitigationStatus) IsTerminal() bool {
	return s.IsImplemented() || s == MitigationStatusRejected
}

// MitigationPriority orders mitigations by urgency.
type MitigationPriority string

const (
	PriorityCritical MitigationPriority = "critical"
	PriorityHigh     MitigationPriority = "high"
	PriorityMedium   MitigationPriority = "medium"
	PriorityLow      MitigationPriority = "low"
)

// PriorityDisplayOrder is the fixed order priorities appear in breakdowns,
// most urgent first.
var PriorityDisplayOrder = []MitigationPriority{
	PriorityCritical,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
}

// EffectivenessRating is the assessed effectiveness of an implemented
// mitigation.
type EffectivenessRating string

const (
	EffectivenessLow       EffectivenessRating = "low"
	EffectivenessMedium    EffectivenessRating = "medium"
	EffectivenessHigh      EffectivenessRating = "high"
	EffectivenessExcellent EffectivenessRating = "excellent"
)

var effectivenessValues = map[EffectivenessRating]int{
	EffectivenessLow:       1,
	EffectivenessMedium:    2,
	EffectivenessHigh:      3,
	EffectivenessExcellent: 4,
}

// Value returns the numeric value (1-4) used for effectiveness averages.
func (e EffectivenessRating) Value() (int, error) {
	v, ok := effectivenessValues[e]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidInput, "unknown effectiveness rating %q", string(e))
	}
	return v, nil
}

// Mitigation is a planned or completed remedial action addressing one
// threat.
type Mitigation struct {
	ID            uuid.UUID            `json:"id" db:"id"`
	ThreatID      uuid.UUID            `json:"threat_id" db:"threat_id"`
	Name          string               `json:"name" db:"name"`
	Description   string               `json:"description" db:"description"`
	Strategy      MitigationStrategy   `json:"strategy" db:"strategy"`
	Status        MitigationStatus     `json:"status" db:"status"`
	Priority      MitigationPriority   `json:"priority" db:"priority"`
	Effectiveness *EffectivenessRating `json:"effectiveness,omitempty" db:"effectiveness"`
	CostEstimate  *float64             `json:"cost_estimate,omitempty" db:"cost_estimate"`
	Owner         string               `json:"owner,omitempty" db:"owner"`
	TargetDate    *time.Time           `json:"target_date,omitempty" db:"target_date"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`
}

// SetStatus transitions the mitigation status, stamping the completion time
// on the first transition into an implemented state.
func (m *Mitigation) SetStatus(status MitigationStatus, now time.Time) {
	m.Status = status
	m.UpdatedAt = now
	if status.IsImplemented() && m.CompletedAt == nil {
		completed := now
		m.CompletedAt = &completed
	}
}

// IsOverdue reports whether the mitigation has passed its target date
// without reaching a terminal status.
func (m *Mitigation) IsOverdue(now time.Time) bool {
	return m.TargetDate != nil && m.TargetDate.Before(now) && !m.Status.IsTerminal()
}

// IsDueSoon reports whether the mitigation's target date falls within the
// given window and the mitigation is not terminal.
func (m *Mitigation) IsDueSoon(now time.Time, window time.Duration) bool {
	if m.TargetDate == nil || m.Status.IsTerminal() {
		return false
	}
	return !m.TargetDate.Before(now) && m.TargetDate.Sub(now) <= window
}
