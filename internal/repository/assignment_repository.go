package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/escolar-api/internal/models"
)

// AssignmentRepository persists the grade/section assignment join rows.
//
// The schema is expected to carry UNIQUE (student_id, school_year_id) on
// both tables as a backstop for the application-level duplicate checks.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindGradeAssignment returns the student's grade assignment for a school
// year, or sql.ErrNoRows when none exists.
func (r *AssignmentRepository) FindGradeAssignment(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.GradeAssignment, error) {
	const query = `SELECT id, student_id, grade_id, school_year_id, assigned_at, transferred_at
        FROM grade_assignments WHERE student_id = $1 AND school_year_id = $2`
	var assignment models.GradeAssignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment, query, studentID, schoolYearID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindSectionAssignment returns the student's section assignment for a school
// year, or sql.ErrNoRows when none exists.
func (r *AssignmentRepository) FindSectionAssignment(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.SectionAssignment, error) {
	const query = `SELECT id, student_id, section_id, school_year_id, assigned_at
        FROM section_assignments WHERE student_id = $1 AND school_year_id = $2`
	var assignment models.SectionAssignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment, query, studentID, schoolYearID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// CreateGradeAssignment inserts a grade assignment row.
func (r *AssignmentRepository) CreateGradeAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.GradeAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grade_assignments (id, student_id, grade_id, school_year_id, assigned_at, transferred_at)
        VALUES (:id, :student_id, :grade_id, :school_year_id, :assigned_at, :transferred_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, assignment); err != nil {
		return fmt.Errorf("create grade assignment: %w", err)
	}
	return nil
}

// CreateSectionAssignment inserts a section assignment row.
func (r *AssignmentRepository) CreateSectionAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.SectionAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO section_assignments (id, student_id, section_id, school_year_id, assigned_at)
        VALUES (:id, :student_id, :section_id, :school_year_id, :assigned_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, assignment); err != nil {
		return fmt.Errorf("create section assignment: %w", err)
	}
	return nil
}

// DeleteGradeAssignment removes a grade assignment row by ID.
func (r *AssignmentRepository) DeleteGradeAssignment(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `DELETE FROM grade_assignments WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete grade assignment: %w", err)
	}
	return nil
}

// DeleteSectionAssignment removes a section assignment row by ID.
func (r *AssignmentRepository) DeleteSectionAssignment(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `DELETE FROM section_assignments WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete section assignment: %w", err)
	}
	return nil
}

// CurrentPlacement resolves the student's (grade, section) for a school year,
// or sql.ErrNoRows when the student has no grade assignment.
func (r *AssignmentRepository) CurrentPlacement(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.Placement, error) {
	const query = `SELECT ga.grade_id, COALESCE(sa.section_id, '') AS section_id
        FROM grade_assignments ga
        LEFT JOIN section_assignments sa
            ON sa.student_id = ga.student_id AND sa.school_year_id = ga.school_year_id
        WHERE ga.student_id = $1 AND ga.school_year_id = $2`
	var placement models.Placement
	if err := sqlx.GetContext(ctx, r.exec(exec), &placement, query, studentID, schoolYearID); err != nil {
		return nil, err
	}
	return &placement, nil
}
