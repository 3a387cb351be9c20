package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
)

// PostgresReportRepository stores generated report documents. Documents are
// insert-only; regeneration always produces a new row.
type PostgresReportRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresReportRepository creates the repository.
func NewPostgresReportRepository(db *sqlx.DB, logger *zap.Logger) *PostgresReportRepository {
	return &PostgresReportRepository{db: db, logger: logger}
}

func (r *PostgresReportRepository) Save(ctx context.Context, doc *entity.ReportDocument) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO report_documents
		   (id, subject_id, type, format, generated_by, size_bytes, content, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.SubjectID, doc.Type, doc.Format, doc.GeneratedBy,
		doc.SizeBytes, doc.Content, doc.GeneratedAt)
	if err != nil {
		return errors.Wrap(err, "save report document")
	}

	r.logger.Debug("report document saved",
		zap.String("report_id", doc.ID.String()),
		zap.String("type", string(doc.Type)),
		zap.Int64("size_bytes", doc.SizeBytes))
	return nil
}
