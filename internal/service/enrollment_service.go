package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusops/escolar-api/internal/models"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type paymentCounter interface {
	CountByEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollmentID string) (int, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error)
}

// EnrollmentService manages the enrollment lifecycle after intake: listing,
// status transitions and deletion. Deletion is guarded: an enrollment with
// payments attached cannot be removed.
type EnrollmentService struct {
	repo        enrollmentRepository
	payments    paymentCounter
	assignments assignmentRepository
	seats       *SeatService
	tx          txProvider
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, payments paymentCounter, assignments assignmentRepository, seats *SeatService, tx txProvider, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, payments: payments, assignments: assignments, seats: seats, tx: tx, logger: logger}
}

// List returns enrollments matching the filter with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single enrollment by ID.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Payments returns the payments attached to an enrollment.
func (s *EnrollmentService) Payments(ctx context.Context, id string) ([]models.Payment, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByEnrollment(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// UpdateStatus moves an enrollment through its lifecycle. Only transitions
// out of PENDING and ENROLLED are allowed; anything else is rejected.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !enrollment.Status.CanTransition(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment status cannot change from "+string(enrollment.Status)+" to "+string(status))
	}
	if err := s.repo.UpdateStatus(ctx, nil, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	enrollment.Status = status
	s.logger.Info("enrollment status updated",
		zap.String("enrollment_id", id),
		zap.String("status", string(status)),
	)
	return enrollment, nil
}

// Delete removes an enrollment along with the student's placement for the
// school year, releasing the vacated seat. An enrollment with payments
// attached is never deleted; the payments must be handled first.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var enrollment *models.Enrollment
	if enrollment, err = s.repo.FindByID(ctx, tx, id); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		} else {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
		return err
	}

	var count int
	if count, err = s.payments.CountByEnrollment(ctx, tx, id); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count payments")
		return err
	}
	if count > 0 {
		err = appErrors.Clone(appErrors.ErrDependentPayments, "enrollment has payments attached and cannot be deleted")
		return err
	}

	grade, gradeErr := s.assignments.FindGradeAssignment(ctx, tx, enrollment.StudentID, enrollment.SchoolYearID)
	if gradeErr != nil && gradeErr != sql.ErrNoRows {
		err = appErrors.Wrap(gradeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade assignment")
		return err
	}
	if gradeErr == nil {
		if err = s.assignments.DeleteGradeAssignment(ctx, tx, grade.ID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade assignment")
			return err
		}
	}

	section, sectionErr := s.assignments.FindSectionAssignment(ctx, tx, enrollment.StudentID, enrollment.SchoolYearID)
	if sectionErr != nil && sectionErr != sql.ErrNoRows {
		err = appErrors.Wrap(sectionErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section assignment")
		return err
	}
	if sectionErr == nil {
		if err = s.assignments.DeleteSectionAssignment(ctx, tx, section.ID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section assignment")
			return err
		}
		if err = s.seats.Release(ctx, tx, section.SectionID, enrollment.SchoolYearID); err != nil {
			return err
		}
	}

	if err = s.repo.Delete(ctx, tx, id); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
		return err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit enrollment deletion")
		return err
	}
	s.seats.InvalidateAvailability(ctx, enrollment.GradeID)
	return nil
}
