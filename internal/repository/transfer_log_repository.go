package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/escolar-api/internal/models"
)

// TransferLogRepository persists the transfer audit trail.
type TransferLogRepository struct {
	db *sqlx.DB
}

// NewTransferLogRepository constructs the repository.
func NewTransferLogRepository(db *sqlx.DB) *TransferLogRepository {
	return &TransferLogRepository{db: db}
}

func (r *TransferLogRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a transfer log row.
func (r *TransferLogRepository) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.TransferLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.MovedAt.IsZero() {
		entry.MovedAt = time.Now().UTC()
	}
	const query = `INSERT INTO transfer_logs (id, student_id, school_year_id, from_grade_id, from_section_id, to_grade_id, to_section_id, moved_at, note)
        VALUES (:id, :student_id, :school_year_id, :from_grade_id, :from_section_id, :to_grade_id, :to_section_id, :moved_at, :note)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry); err != nil {
		return fmt.Errorf("create transfer log: %w", err)
	}
	return nil
}

// List returns transfer logs matching the filter, most recent first.
func (r *TransferLogRepository) List(ctx context.Context, filter models.TransferLogFilter) ([]models.TransferLog, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT id, student_id, school_year_id, from_grade_id, from_section_id, to_grade_id, to_section_id, moved_at, note
        FROM transfer_logs`)

	conditions := make([]string, 0, 2)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.SchoolYearID != "" {
		args = append(args, filter.SchoolYearID)
		conditions = append(conditions, fmt.Sprintf("school_year_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY moved_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var logs []models.TransferLog
	if err := r.db.SelectContext(ctx, &logs, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list transfer logs: %w", err)
	}
	return logs, nil
}
