package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReportType distinguishes the two report subjects.
type ReportType string

const (
	ReportTypeAssessment  ReportType = "assessment"
	ReportTypeThreatModel ReportType = "threat_model"
)

// IsValid reports whether the report type is recognized.
func (t ReportType) IsValid() bool {
	return t == ReportTypeAssessment || t == ReportTypeThreatModel
}

// Organization is the owning organization for assessments and threat
// models. Only identity and display name are needed by this engine.
type Organization struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

// ReportDocument is a generated, immutable report artifact. Regeneration
// produces a new document rather than updating an existing one.
type ReportDocument struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	SubjectID   uuid.UUID  `json:"subject_id" db:"subject_id"`
	Type        ReportType `json:"type" db:"type"`
	Format      string     `json:"format" db:"format"`
	GeneratedBy string     `json:"generated_by" db:"generated_by"`
	SizeBytes   int64      `json:"size_bytes" db:"size_bytes"`
	Content     []byte     `json:"-" db:"content"`
	GeneratedAt time.Time  `json:"generated_at" db:"generated_at"`
}
