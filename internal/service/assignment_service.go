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

type assignmentRepository interface {
	FindGradeAssignment(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.GradeAssignment, error)
	FindSectionAssignment(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.SectionAssignment, error)
	CreateGradeAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.GradeAssignment) error
	CreateSectionAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.SectionAssignment) error
	DeleteGradeAssignment(ctx context.Context, exec sqlx.ExtContext, id string) error
	DeleteSectionAssignment(ctx context.Context, exec sqlx.ExtContext, id string) error
	CurrentPlacement(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.Placement, error)
}

// AssignRequest describes a direct placement request.
type AssignRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	GradeID      string `json:"grade_id" validate:"required"`
	SectionID    string `json:"section_id" validate:"required"`
	SchoolYearID string `json:"school_year_id" validate:"required"`
}

// AssignmentService enforces the one-grade-one-section-per-year rule and
// keeps placements atomic with seat counter changes.
type AssignmentService struct {
	repo      assignmentRepository
	seats     *SeatService
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(repo assignmentRepository, seats *SeatService, tx txProvider, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, seats: seats, tx: tx, validator: validate, logger: logger}
}

// Assign places a student into a grade and section for a school year. The
// placement rows and the seat reservation commit or roll back together.
func (s *AssignmentService) Assign(ctx context.Context, req AssignRequest) (*models.Placement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.repo.FindGradeAssignment(ctx, tx, req.StudentID, req.SchoolYearID); err == nil {
		err = appErrors.Clone(appErrors.ErrDuplicateAssignment, "student already has a grade assignment for this school year")
		return nil, err
	} else if err != sql.ErrNoRows {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check grade assignment")
		return nil, err
	}
	err = nil

	if err = s.repo.CreateGradeAssignment(ctx, tx, &models.GradeAssignment{
		StudentID:    req.StudentID,
		GradeID:      req.GradeID,
		SchoolYearID: req.SchoolYearID,
	}); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade assignment")
		return nil, err
	}
	if err = s.repo.CreateSectionAssignment(ctx, tx, &models.SectionAssignment{
		StudentID:    req.StudentID,
		SectionID:    req.SectionID,
		SchoolYearID: req.SchoolYearID,
	}); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section assignment")
		return nil, err
	}
	if err = s.seats.Reserve(ctx, tx, req.SectionID, req.SchoolYearID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
		return nil, err
	}
	s.seats.InvalidateAvailability(ctx, req.GradeID)

	return &models.Placement{GradeID: req.GradeID, SectionID: req.SectionID}, nil
}

// Unassign removes a student's placement for a school year and releases the
// vacated seat. Releasing is always paired with the section row actually
// deleted. Removing a placement that does not exist is a no-op.
func (s *AssignmentService) Unassign(ctx context.Context, studentID, schoolYearID string) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var vacatedGrade string

	grade, gradeErr := s.repo.FindGradeAssignment(ctx, tx, studentID, schoolYearID)
	if gradeErr != nil && gradeErr != sql.ErrNoRows {
		err = appErrors.Wrap(gradeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade assignment")
		return err
	}
	if gradeErr == nil {
		if err = s.repo.DeleteGradeAssignment(ctx, tx, grade.ID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade assignment")
			return err
		}
		vacatedGrade = grade.GradeID
	}

	section, sectionErr := s.repo.FindSectionAssignment(ctx, tx, studentID, schoolYearID)
	if sectionErr != nil && sectionErr != sql.ErrNoRows {
		err = appErrors.Wrap(sectionErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section assignment")
		return err
	}
	if sectionErr == nil {
		if err = s.repo.DeleteSectionAssignment(ctx, tx, section.ID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section assignment")
			return err
		}
		if err = s.seats.Release(ctx, tx, section.SectionID, schoolYearID); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit unassignment")
		return err
	}
	s.seats.InvalidateAvailability(ctx, vacatedGrade)
	return nil
}

// Current resolves a student's placement for a school year.
func (s *AssignmentService) Current(ctx context.Context, studentID, schoolYearID string) (*models.Placement, error) {
	placement, err := s.repo.CurrentPlacement(ctx, nil, studentID, schoolYearID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no placement for this school year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	return placement, nil
}
