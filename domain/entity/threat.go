package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// StrideCategory is the fixed six-category threat classification taxonomy.
type StrideCategory string

const (
	StrideSpoofing              StrideCategory = "spoofing"
	StrideTampering             StrideCategory = "tampering"
	StrideRepudiation           StrideCategory = "repudiation"
	StrideInformationDisclosure StrideCategory = "information_disclosure"
	StrideDenialOfService       StrideCategory = "denial_of_service"
	StrideElevationOfPrivilege  StrideCategory = "elevation_of_privilege"
)

// StrideDisplayOrder is the fixed order STRIDE groups are presented in.
// Breakdown ties and report groupings follow this order, never counts.
var StrideDisplayOrder = []StrideCategory{
	StrideSpoofing,
	StrideTampering,
	StrideRepudiation,
	StrideInformationDisclosure,
	StrideDenialOfService,
	StrideElevationOfPrivilege,
}

// IsValid reports whether the category is one of the six STRIDE values.
func (c StrideCategory) IsValid() bool {
	for _, v := range StrideDisplayOrder {
		if v == c {
			return true
		}
	}
	return false
}

// ThreatStatus represents the lifecycle state of a threat.
type ThreatStatus string

const (
	ThreatStatusIdentified  ThreatStatus = "identified"
	ThreatStatusAnalyzing   ThreatStatus = "analyzing"
	ThreatStatusMitigating  ThreatStatus = "mitigating"
	ThreatStatusMitigated   ThreatStatus = "mitigated"
	ThreatStatusAccepted    ThreatStatus = "accepted"
	ThreatStatusTransferred ThreatStatus = "transferred"
)

// ThreatStatusDisplayOrder is the fixed order statuses appear in breakdowns.
var ThreatStatusDisplayOrder = []ThreatStatus{
	ThreatStatusIdentified,
	ThreatStatusAnalyzing,
	ThreatStatusMitigating,
	ThreatStatusMitigated,
	ThreatStatusAccepted,
	ThreatStatusTransferred,
}

// IsValid reports whether the status is a recognized threat status.
func (s ThreatStatus) IsValid() bool {
	for _, v := range ThreatStatusDisplayOrder {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status counts toward mitigation coverage.
func (s ThreatStatus) IsTerminal() bool {
	return s == ThreatStatusMitigated || s == ThreatStatusAccepted
}

// IsEarly reports whether the threat is still in an early lifecycle stage.
func (s ThreatStatus) IsEarly() bool {
	return s == ThreatStatusIdentified || s == ThreatStatusAnalyzing
}

// ThreatModel is a STRIDE threat model scoped to one organization.
type ThreatModel struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	Scope          string    `json:"scope" db:"scope"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Threat is a single identified risk within a threat model. Score and level
// are derived from likelihood and impact and recomputed on every change to
// either; they are never edited directly.
type Threat struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	ModelID     uuid.UUID      `json:"model_id" db:"model_id"`
	AssetID     *uuid.UUID     `json:"asset_id,omitempty" db:"asset_id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	Category    StrideCategory `json:"category" db:"category"`
	Likelihood  Rating         `json:"likelihood" db:"likelihood"`
	Impact      Rating         `json:"impact" db:"impact"`
	RiskScore   int            `json:"risk_score" db:"risk_score"`
	RiskLevel   RiskLevel      `json:"risk_level" db:"risk_level"`
	Status      ThreatStatus   `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Validate validates the threat entity.
func (t *Threat) Validate() error {
	if t.ModelID == uuid.Nil {
		return errors.Wrap(ErrInvalidInput, "model ID is required")
	}
	if t.Name == "" {
		return errors.Wrap(ErrInvalidInput, "threat name is required")
	}
	if !t.Category.IsValid() {
		return errors.Wrapf(ErrInvalidInput, "unknown STRIDE category %q", string(t.Category))
	}
	if !t.Likelihood.IsValid() {
		return errors.Wrapf(ErrInvalidInput, "unknown likelihood %q", string(t.Likelihood))
	}
	if !t.Impact.IsValid() {
		return errors.Wrapf(ErrInvalidInput, "unknown impact %q", string(t.Impact))
	}
	if !t.Status.IsValid() {
		return errors.Wrapf(ErrInvalidInput, "unknown threat status %q", string(t.Status))
	}
	return nil
}

// ThreatUpdate is a partial update to a threat. Nil fields are left
// unchanged. Supplying either likelihood or impact forces score and level to
// be recomputed from the merged pair.
type ThreatUpdate struct {
	Name        *string
	Description *string
	Category    *StrideCategory
	Likelihood  *Rating
	Impact      *Rating
	Status      *ThreatStatus
}
