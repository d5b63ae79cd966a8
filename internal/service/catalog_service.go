package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusops/escolar-api/internal/models"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
)

type catalogRepository interface {
	ListGrades(ctx context.Context) ([]models.GradeDetail, error)
	FindGradeByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Grade, error)
	ListSectionsByGrade(ctx context.Context, exec sqlx.ExtContext, gradeID string) ([]models.Section, error)
	FindSectionByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error)
	UpdateSectionCapacity(ctx context.Context, exec sqlx.ExtContext, id string, capacity int) error
	ListSchoolYears(ctx context.Context) ([]models.SchoolYear, error)
	FindSchoolYearByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.SchoolYear, error)
	FindActiveSchoolYear(ctx context.Context) (*models.SchoolYear, error)
}

// ResizeSectionRequest adjusts a section's nominal capacity.
type ResizeSectionRequest struct {
	SectionID    string `json:"section_id" validate:"required"`
	SchoolYearID string `json:"school_year_id" validate:"required"`
	Capacity     int    `json:"capacity" validate:"required,min=1"`
}

// CatalogService serves the grade/section/school-year catalog and the one
// admin mutation it supports, resizing a section.
type CatalogService struct {
	repo      catalogRepository
	seats     *SeatService
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(repo catalogRepository, seats *SeatService, tx txProvider, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, seats: seats, tx: tx, validator: validate, logger: logger}
}

// ListGrades returns all grades with level names.
func (s *CatalogService) ListGrades(ctx context.Context) ([]models.GradeDetail, error) {
	grades, err := s.repo.ListGrades(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListSections returns the sections of a grade.
func (s *CatalogService) ListSections(ctx context.Context, gradeID string) ([]models.Section, error) {
	if _, err := s.repo.FindGradeByID(ctx, nil, gradeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	sections, err := s.repo.ListSectionsByGrade(ctx, nil, gradeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// ListSchoolYears returns all school years.
func (s *CatalogService) ListSchoolYears(ctx context.Context) ([]models.SchoolYear, error) {
	years, err := s.repo.ListSchoolYears(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list school years")
	}
	return years, nil
}

// ActiveSchoolYear returns the current academic period.
func (s *CatalogService) ActiveSchoolYear(ctx context.Context) (*models.SchoolYear, error) {
	year, err := s.repo.FindActiveSchoolYear(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active school year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active school year")
	}
	return year, nil
}

// ResizeSection updates a section's nominal capacity and reconciles the
// seat counter for the given school year, keeping available = capacity -
// occupied. Shrinking below current occupancy is allowed; the counter floors
// at zero availability and existing students keep their seats.
func (s *CatalogService) ResizeSection(ctx context.Context, req ResizeSectionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resize payload")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var section *models.Section
	if section, err = s.repo.FindSectionByID(ctx, tx, req.SectionID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "section not found")
		} else {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
		}
		return err
	}

	if err = s.repo.UpdateSectionCapacity(ctx, tx, req.SectionID, req.Capacity); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section capacity")
		return err
	}
	if err = s.seats.Resize(ctx, tx, req.SectionID, req.Capacity); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit section resize")
		return err
	}

	s.logger.Info("section resized",
		zap.String("section_id", req.SectionID),
		zap.Int("capacity", req.Capacity),
	)
	s.seats.InvalidateAvailability(ctx, section.GradeID)
	return nil
}
