package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/escolar-api/internal/models"
)

// PaymentRepository persists payment rows. Business rules around payments
// live elsewhere; the enrollment workflows only need creation of pending
// stubs and the dependent-payment count guarding deletion.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a payment row.
func (r *PaymentRepository) Create(ctx context.Context, exec sqlx.ExtContext, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	const query = `INSERT INTO payments (id, enrollment_id, concept, amount, status, created_at)
        VALUES (:id, :enrollment_id, :concept, :amount, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// CountByEnrollment returns the number of payments referencing an enrollment.
func (r *PaymentRepository) CountByEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM payments WHERE enrollment_id = $1`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, enrollmentID); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return count, nil
}

// ListByEnrollment returns the payments referencing an enrollment.
func (r *PaymentRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	const query = `SELECT id, enrollment_id, concept, amount, status, created_at
        FROM payments WHERE enrollment_id = $1 ORDER BY created_at ASC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
