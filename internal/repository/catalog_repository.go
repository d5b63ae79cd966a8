package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/escolar-api/internal/models"
)

// CatalogRepository reads the static grade/section/school-year catalog.
// Everything here is read-only except section capacity, which the admin
// surface may adjust.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListGrades returns all grades with their level names.
func (r *CatalogRepository) ListGrades(ctx context.Context) ([]models.GradeDetail, error) {
	const query = `SELECT g.id, g.name, g.level_id, l.name AS level_name
        FROM grades g
        LEFT JOIN levels l ON l.id = g.level_id
        ORDER BY g.id ASC`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FindGradeByID returns a grade by identifier.
func (r *CatalogRepository) FindGradeByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Grade, error) {
	const query = `SELECT id, name, level_id FROM grades WHERE id = $1`
	var grade models.Grade
	if err := sqlx.GetContext(ctx, r.exec(exec), &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// ListSectionsByGrade returns a grade's sections in ascending ID order.
func (r *CatalogRepository) ListSectionsByGrade(ctx context.Context, exec sqlx.ExtContext, gradeID string) ([]models.Section, error) {
	const query = `SELECT id, name, grade_id, capacity FROM sections WHERE grade_id = $1 ORDER BY id ASC`
	var sections []models.Section
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sections, query, gradeID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindSectionByID returns a section by identifier.
func (r *CatalogRepository) FindSectionByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error) {
	const query = `SELECT id, name, grade_id, capacity FROM sections WHERE id = $1`
	var section models.Section
	if err := sqlx.GetContext(ctx, r.exec(exec), &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// UpdateSectionCapacity sets a section's nominal capacity.
func (r *CatalogRepository) UpdateSectionCapacity(ctx context.Context, exec sqlx.ExtContext, id string, capacity int) error {
	const query = `UPDATE sections SET capacity = $2 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, capacity); err != nil {
		return fmt.Errorf("update section capacity: %w", err)
	}
	return nil
}

// ListSchoolYears returns all school years, most recent first.
func (r *CatalogRepository) ListSchoolYears(ctx context.Context) ([]models.SchoolYear, error) {
	const query = `SELECT id, period, active FROM school_years ORDER BY period DESC`
	var years []models.SchoolYear
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list school years: %w", err)
	}
	return years, nil
}

// FindSchoolYearByID returns a school year by identifier.
func (r *CatalogRepository) FindSchoolYearByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.SchoolYear, error) {
	const query = `SELECT id, period, active FROM school_years WHERE id = $1`
	var year models.SchoolYear
	if err := sqlx.GetContext(ctx, r.exec(exec), &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindActiveSchoolYear returns the single active school year.
func (r *CatalogRepository) FindActiveSchoolYear(ctx context.Context) (*models.SchoolYear, error) {
	const query = `SELECT id, period, active FROM school_years WHERE active = TRUE LIMIT 1`
	var year models.SchoolYear
	if err := r.db.GetContext(ctx, &year, query); err != nil {
		return nil, err
	}
	return &year, nil
}
