package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/escolar-api/internal/models"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
)

type studentDirectory interface {
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Person, error)
	FindByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string, category models.PersonCategory) (*models.Person, error)
}

// StudentService serves the read side of the student directory.
type StudentService struct {
	repo studentDirectory
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentDirectory) *StudentService {
	return &StudentService{repo: repo}
}

// List returns students matching the filter with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.ListStudents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student by identifier.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Person, error) {
	person, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if person.Category != models.CategoryStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return person, nil
}

// FindGuardian looks up a guardian by national ID, for intake forms that
// want to reuse an existing guardian record.
func (s *StudentService) FindGuardian(ctx context.Context, nationalID string) (*models.Person, error) {
	guardian, err := s.repo.FindByNationalID(ctx, nil, nationalID, models.CategoryGuardian)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
	}
	return guardian, nil
}
