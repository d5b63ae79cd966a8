package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/escolar-api/internal/models"
)

// SeatRepository owns the seat_counters ledger. One row per
// (section, school year), created lazily on first reservation.
//
// The schema backing this repository is expected to carry
// UNIQUE (section_id, school_year_id) on seat_counters.
type SeatRepository struct {
	db *sqlx.DB
}

// NewSeatRepository constructs the repository.
func NewSeatRepository(db *sqlx.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

func (r *SeatRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Find returns the counter for a section and school year, or sql.ErrNoRows.
func (r *SeatRepository) Find(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string) (*models.SeatCounter, error) {
	const query = `SELECT id, section_id, school_year_id, capacity, occupied, available
        FROM seat_counters WHERE section_id = $1 AND school_year_id = $2`
	var counter models.SeatCounter
	if err := sqlx.GetContext(ctx, r.exec(exec), &counter, query, sectionID, schoolYearID); err != nil {
		return nil, err
	}
	return &counter, nil
}

// Reserve takes one seat in a single conditional statement. The counter row
// is upserted from the section's nominal capacity on first use, so a fresh
// counter commits with occupied=1. Returns false when no seat is available;
// the rows-affected check closes the read-then-write race between concurrent
// reservations.
func (r *SeatRepository) Reserve(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string, defaultCapacity int) (bool, error) {
	const query = `INSERT INTO seat_counters (id, section_id, school_year_id, capacity, occupied, available)
        SELECT $1, s.id, $3, COALESCE(s.capacity, $4), 1, COALESCE(s.capacity, $4) - 1
        FROM sections s
        WHERE s.id = $2 AND COALESCE(s.capacity, $4) > 0
        ON CONFLICT (section_id, school_year_id) DO UPDATE
        SET occupied = seat_counters.occupied + 1,
            available = seat_counters.available - 1
        WHERE seat_counters.available > 0`
	result, err := r.exec(exec).ExecContext(ctx, query, uuid.NewString(), sectionID, schoolYearID, defaultCapacity)
	if err != nil {
		return false, fmt.Errorf("reserve seat: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check reserve rows: %w", err)
	}
	return rows > 0, nil
}

// Release returns one seat. Occupied is floored at zero and available is
// recomputed from it, so over-release is idempotent and the capacity
// invariant holds. Releasing a section without a counter is a no-op.
func (r *SeatRepository) Release(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string) error {
	const query = `UPDATE seat_counters
        SET occupied = GREATEST(occupied - 1, 0),
            available = LEAST(capacity, capacity - GREATEST(occupied - 1, 0))
        WHERE section_id = $1 AND school_year_id = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, sectionID, schoolYearID); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}

// ListAvailability reports the effective availability of every section of a
// grade in ascending section ID order. Sections without a counter report
// their nominal capacity as fully available.
func (r *SeatRepository) ListAvailability(ctx context.Context, exec sqlx.ExtContext, gradeID, schoolYearID string, defaultCapacity int) ([]models.SectionAvailability, error) {
	const query = `SELECT s.id AS section_id, s.name AS section_name,
            COALESCE(c.capacity, COALESCE(s.capacity, $3)) AS capacity,
            COALESCE(c.occupied, 0) AS occupied,
            COALESCE(c.available, COALESCE(s.capacity, $3)) AS available
        FROM sections s
        LEFT JOIN seat_counters c ON c.section_id = s.id AND c.school_year_id = $2
        WHERE s.grade_id = $1
        ORDER BY s.id ASC`
	var sections []models.SectionAvailability
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sections, query, gradeID, schoolYearID, defaultCapacity); err != nil {
		return nil, fmt.Errorf("list section availability: %w", err)
	}
	return sections, nil
}

// SectionAvailability reports the effective availability of one section.
func (r *SeatRepository) SectionAvailability(ctx context.Context, exec sqlx.ExtContext, sectionID, schoolYearID string, defaultCapacity int) (*models.SectionAvailability, error) {
	const query = `SELECT s.id AS section_id, s.name AS section_name,
            COALESCE(c.capacity, COALESCE(s.capacity, $3)) AS capacity,
            COALESCE(c.occupied, 0) AS occupied,
            COALESCE(c.available, COALESCE(s.capacity, $3)) AS available
        FROM sections s
        LEFT JOIN seat_counters c ON c.section_id = s.id AND c.school_year_id = $2
        WHERE s.id = $1`
	var availability models.SectionAvailability
	if err := sqlx.GetContext(ctx, r.exec(exec), &availability, query, sectionID, schoolYearID, defaultCapacity); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("section availability: %w", err)
	}
	return &availability, nil
}

// ResizeCapacity adjusts every counter of a section to the new capacity and
// recomputes availability, floored at zero when the section already holds
// more students than the new capacity.
func (r *SeatRepository) ResizeCapacity(ctx context.Context, exec sqlx.ExtContext, sectionID string, capacity int) error {
	const query = `UPDATE seat_counters
        SET capacity = $2, available = GREATEST($2 - occupied, 0)
        WHERE section_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, sectionID, capacity); err != nil {
		return fmt.Errorf("resize seat capacity: %w", err)
	}
	return nil
}
