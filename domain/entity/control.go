package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ImplementationStatus represents the assessed state of a control.
type ImplementationStatus string

const (
	StatusNotImplemented      ImplementationStatus = "not_implemented"
	StatusPartiallyImplemented ImplementationStatus = "partially_implemented"
	StatusLargelyImplemented  ImplementationStatus = "largely_implemented"
	StatusFullyImplemented    ImplementationStatus = "fully_implemented"
	StatusNotApplicable       ImplementationStatus = "not_applicable"
	StatusAtRisk              ImplementationStatus = "at_risk"
)

var implementationStatuses = map[ImplementationStatus]struct{}{
	StatusNotImplemented:       {},
	StatusPartiallyImplemented: {},
	StatusLargelyImplemented:   {},
	StatusFullyImplemented:     {},
	StatusNotApplicable:        {},
	StatusAtRisk:               {},
}

// IsValid reports whether the status is a recognized implementation status.
func (s ImplementationStatus) IsValid() bool {
	_, ok := implementationStatuses[s]
	return ok
}

// CountsAsImplemented reports whether the status contributes to the
// implementation rate.
func (s ImplementationStatus) CountsAsImplemented() bool {
	return s == StatusFullyImplemented || s == StatusLargelyImplemented
}

// NISTFunction classifies a control under the NIST CSF core functions.
type NISTFunction string

const (
	FunctionIdentify NISTFunction = "identify"
	FunctionProtect  NISTFunction = "protect"
	FunctionDetect   NISTFunction = "detect"
	FunctionRespond  NISTFunction = "respond"
	FunctionRecover  NISTFunction = "recover"
)

// NISTFunctionDisplayOrder is the fixed order control findings are grouped
// in. Reports never reorder by count or alphabetically.
var NISTFunctionDisplayOrder = []NISTFunction{
	FunctionIdentify,
	FunctionProtect,
	FunctionDetect,
	FunctionRespond,
	FunctionRecover,
}

// Control is a fixed catalogue item representing a required security
// practice.
type Control struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Code        string       `json:"code" db:"code"`
	Name        string       `json:"name" db:"name"`
	Description string       `json:"description" db:"description"`
	Function    NISTFunction `json:"function" db:"function"`
	Category    string       `json:"category" db:"category"`
}

// Assessment is one compliance assessment of an organization against the
// control catalogue.
type Assessment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Framework      string    `json:"framework" db:"framework"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ControlAssessment is one control's assessed state within one assessment.
// Uniquely keyed by (assessment_id, control_id); re-assessing the same
// control upserts rather than duplicating.
type ControlAssessment struct {
	ID              uuid.UUID            `json:"id" db:"id"`
	AssessmentID    uuid.UUID            `json:"assessment_id" db:"assessment_id"`
	ControlID       uuid.UUID            `json:"control_id" db:"control_id"`
	Status          ImplementationStatus `json:"status" db:"status"`
	MaturityLevel   int                  `json:"maturity_level" db:"maturity_level"`
	ComplianceScore *float64             `json:"compliance_score,omitempty" db:"compliance_score"`
	Notes           string               `json:"notes,omitempty" db:"notes"`
	Recommendations string               `json:"recommendations,omitempty" db:"recommendations"`
	AssessedBy      string               `json:"assessed_by" db:"assessed_by"`
	AssessedAt      time.Time            `json:"assessed_at" db:"assessed_at"`
	CreatedAt       time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" db:"updated_at"`
}

// Validate validates the control assessment entry.
func (c *ControlAssessment) Validate() error {
	if c.AssessmentID == uuid.Nil {
		return errors.Wrap(ErrInvalidInput, "assessment ID is required")
	}
	if c.ControlID == uuid.Nil {
		return errors.Wrap(ErrInvalidInput, "control ID is required")
	}
	if !c.Status.IsValid() {
		return errors.Wrapf(ErrInvalidInput, "unknown implementation status %q", string(c.Status))
	}
	if c.MaturityLevel < 0 || c.MaturityLevel > 5 {
		return errors.Wrapf(ErrInvalidInput, "maturity level %d out of range", c.MaturityLevel)
	}
	if c.ComplianceScore != nil && (*c.ComplianceScore < 0 || *c.ComplianceScore > 100) {
		return errors.Wrapf(ErrInvalidInput, "compliance score %.2f out of range", *c.ComplianceScore)
	}
	return nil
}
