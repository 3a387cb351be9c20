package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ComputeRiskScoreRequest scores one likelihood/impact pair.
type ComputeRiskScoreRequest struct {
	Likelihood string `json:"likelihood" binding:"required"`
	Impact     string `json:"impact" binding:"required"`
	Preset     string `json:"preset,omitempty"`
}

// ComputeRiskScoreResponse is the scoring result.
type ComputeRiskScoreResponse struct {
	Score int    `json:"score"`
	Level string `json:"level"`
}

// ApplyControlStatusRequest carries one control (re-)assessment.
type ApplyControlStatusRequest struct {
	Status          string   `json:"status" binding:"required"`
	MaturityLevel   int      `json:"maturity_level"`
	ComplianceScore *float64 `json:"compliance_score,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Recommendations string   `json:"recommendations,omitempty"`
	AssessedBy      string   `json:"assessed_by" binding:"required"`
}

// ApplyControlStatusResponse returns the updated entry and any register
// transitions it triggered.
type ApplyControlStatusResponse struct {
	Entry             *entity.ControlAssessment `json:"entry"`
	CreatedEntryID    string                    `json:"created_entry_id,omitempty"`
	CompletedEntryIDs []string                  `json:"completed_entry_ids,omitempty"`
}

// UpdateRegisterEntryRequest carries a manual partial update; absent fields
// leave the stored values untouched.
type UpdateRegisterEntryRequest struct {
	Title              *string    `json:"title,omitempty"`
	Description        *string    `json:"description,omitempty"`
	Likelihood         *string    `json:"likelihood,omitempty"`
	Impact             *string    `json:"impact,omitempty"`
	ResidualLikelihood *string    `json:"residual_likelihood,omitempty"`
	ResidualImpact     *string    `json:"residual_impact,omitempty"`
	Strategy           *string    `json:"strategy,omitempty"`
	Owner              *string    `json:"owner,omitempty"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	Status             *string    `json:"status,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
}

// ToUpdate converts the request into the domain partial-update value.
func (r *UpdateRegisterEntryRequest) ToUpdate() entity.RegisterUpdate {
	u := entity.RegisterUpdate{
		Title:       r.Title,
		Description: r.Description,
		Owner:       r.Owner,
		Deadline:    r.Deadline,
		Notes:       r.Notes,
	}
	u.Likelihood = ratingPtr(r.Likelihood)
	u.Impact = ratingPtr(r.Impact)
	u.ResidualLikelihood = ratingPtr(r.ResidualLikelihood)
	u.ResidualImpact = ratingPtr(r.ResidualImpact)
	if r.Strategy != nil {
		s := entity.MitigationStrategy(*r.Strategy)
		u.Strategy = &s
	}
	if r.Status != nil {
		s := entity.RegisterStatus(*r.Status)
		u.Status = &s
	}
	return u
}

// UpdateThreatRequest carries a partial threat update.
type UpdateThreatRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Likelihood  *string `json:"likelihood,omitempty"`
	Impact      *string `json:"impact,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ToUpdate converts the request into the domain partial-update value.
func (r *UpdateThreatRequest) ToUpdate() entity.ThreatUpdate {
	u := entity.ThreatUpdate{
		Name:        r.Name,
		Description: r.Description,
	}
	if r.Category != nil {
		c := entity.StrideCategory(*r.Category)
		u.Category = &c
	}
	u.Likelihood = ratingPtr(r.Likelihood)
	u.Impact = ratingPtr(r.Impact)
	if r.Status != nil {
		s := entity.ThreatStatus(*r.Status)
		u.Status = &s
	}
	return u
}

// SetMitigationStatusRequest transitions one mitigation.
type SetMitigationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func ratingPtr(s *string) *entity.Rating {
	if s == nil {
		return nil
	}
	r := entity.Rating(*s)
	return &r
}

// GenerateReportRequest requests report generation for one subject.
type GenerateReportRequest struct {
	Kind             string `json:"kind" binding:"required"`
	OrganizationName string `json:"organization_name" binding:"required"`
}

// GenerateReportResponse returns report metadata; the document body is
// retrieved separately.
type GenerateReportResponse struct {
	ReportID    uuid.UUID `json:"report_id"`
	SubjectID   uuid.UUID `json:"subject_id"`
	Type        string    `json:"type"`
	Format      string    `json:"format"`
	GeneratedBy string    `json:"generated_by"`
	SizeBytes   int64     `json:"size_bytes"`
	GeneratedAt time.Time `json:"generated_at"`
}
