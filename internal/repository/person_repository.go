package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/escolar-api/internal/models"
)

// PersonRepository handles persistence of students and guardians, which
// share the persons table and differ by category.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs the repository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListStudents returns students filtered by the provided criteria.
func (r *PersonRepository) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := `FROM persons p
LEFT JOIN grade_assignments ga ON ga.student_id = p.id`
	conditions := []string{"p.category = $1"}
	args := []interface{}{models.CategoryStudent}

	if filter.SchoolYearID != "" {
		base += fmt.Sprintf(" AND ga.school_year_id = $%d", len(args)+1)
		args = append(args, filter.SchoolYearID)
	}
	base += `
LEFT JOIN grades g ON g.id = ga.grade_id
LEFT JOIN section_assignments sa ON sa.student_id = p.id AND sa.school_year_id = ga.school_year_id
LEFT JOIN sections sec ON sec.id = sa.section_id`

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.full_name ILIKE $%d OR p.national_id ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.GradeID != "" {
		conditions = append(conditions, fmt.Sprintf("ga.grade_id = $%d", len(args)+1))
		args = append(args, filter.GradeID)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"full_name":   "p.full_name",
		"national_id": "p.national_id",
		"created_at":  "p.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "p.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.national_id, p.full_name, p.birth_date, p.category, p.created_at, p.updated_at,
        ga.grade_id AS current_grade_id, g.name AS current_grade_name,
        sa.section_id AS current_section_id, sec.name AS current_section_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a person by identifier.
func (r *PersonRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Person, error) {
	const query = `SELECT id, national_id, full_name, birth_date, category, created_at, updated_at
        FROM persons WHERE id = $1`
	var person models.Person
	if err := sqlx.GetContext(ctx, r.exec(exec), &person, query, id); err != nil {
		return nil, err
	}
	return &person, nil
}

// FindByNationalID returns a person by national ID within a category, or
// sql.ErrNoRows when absent.
func (r *PersonRepository) FindByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string, category models.PersonCategory) (*models.Person, error) {
	const query = `SELECT id, national_id, full_name, birth_date, category, created_at, updated_at
        FROM persons WHERE national_id = $1 AND category = $2`
	var person models.Person
	if err := sqlx.GetContext(ctx, r.exec(exec), &person, query, nationalID, category); err != nil {
		return nil, err
	}
	return &person, nil
}

// ExistsByNationalID checks whether a national ID is already used within a
// category.
func (r *PersonRepository) ExistsByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string, category models.PersonCategory) (bool, error) {
	const query = `SELECT 1 FROM persons WHERE national_id = $1 AND category = $2 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, nationalID, category); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check national id: %w", err)
	}
	return true, nil
}

// Create persists a new person record.
func (r *PersonRepository) Create(ctx context.Context, exec sqlx.ExtContext, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = now
	const query = `INSERT INTO persons (id, national_id, full_name, birth_date, category, created_at, updated_at)
        VALUES (:id, :national_id, :full_name, :birth_date, :category, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, person); err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}
