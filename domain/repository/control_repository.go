package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
)

// AssessmentRepository provides read access to assessments and their
// assessed control entries, plus the upsert path used when a control is
// (re-)assessed.
type AssessmentRepository interface {
	// GetAssessment returns the assessment or entity.ErrNotFound.
	GetAssessment(ctx context.Context, id uuid.UUID) (*entity.Assessment, error)

	// GetOrganization returns the owning organization or entity.ErrNotFound.
	GetOrganization(ctx context.Context, id uuid.UUID) (*entity.Organization, error)

	// GetControl returns the catalogue control or entity.ErrNotFound.
	GetControl(ctx context.Context, id uuid.UUID) (*entity.Control, error)

	// ListControls returns the full control catalogue in catalogue order.
	ListControls(ctx context.Context) ([]*entity.Control, error)

	// CountControls returns the catalogue size.
	CountControls(ctx context.Context) (int, error)

	// GetControlAssessment returns the assessed entry for the
	// (assessment, control) pair, or entity.ErrNotFound.
	GetControlAssessment(ctx context.Context, assessmentID, controlID uuid.UUID) (*entity.ControlAssessment, error)

	// ListControlAssessments returns all assessed entries for an assessment.
	ListControlAssessments(ctx context.Context, assessmentID uuid.UUID) ([]*entity.ControlAssessment, error)

	// UpsertControlAssessment creates or overwrites the entry keyed by
	// (assessment_id, control_id).
	UpsertControlAssessment(ctx context.Context, ca *entity.ControlAssessment) error
}
