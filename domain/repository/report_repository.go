package repository

import (
	"context"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
)

// ReportRepository is the sink finished report documents are handed to.
type ReportRepository interface {
	// Save persists a generated document with its metadata.
	Save(ctx context.Context, doc *entity.ReportDocument) error
}
