package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusops/escolar-api/internal/models"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
)

type transferStudentReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Person, error)
}

type transferGradeReader interface {
	FindGradeByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Grade, error)
}

type transferEnrollmentStore interface {
	FindByStudentAndYear(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.Enrollment, error)
	UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id, gradeID, sectionID string) error
}

type transferLogWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, entry *models.TransferLog) error
	List(ctx context.Context, filter models.TransferLogFilter) ([]models.TransferLog, error)
}

// TransferRequest describes a single-student transfer. OriginSectionID, when
// provided, must match the section the student currently occupies.
type TransferRequest struct {
	StudentID       string `json:"student_id" validate:"required"`
	OriginGradeID   string `json:"origin_grade_id" validate:"required"`
	DestGradeID     string `json:"dest_grade_id" validate:"required"`
	SchoolYearID    string `json:"school_year_id" validate:"required"`
	OriginSectionID string `json:"origin_section_id"`
	DestSectionID   string `json:"dest_section_id"`
}

// BulkTransferRequest describes a batch transfer between two grades.
type BulkTransferRequest struct {
	StudentIDs    []string `json:"student_ids" validate:"required,min=1"`
	OriginGradeID string   `json:"origin_grade_id" validate:"required"`
	DestGradeID   string   `json:"dest_grade_id" validate:"required"`
	SchoolYearID  string   `json:"school_year_id" validate:"required"`
}

// TransferService moves students between grades within a school year. Each
// transfer runs inside one transaction: placement rows, seat counters, the
// enrollment snapshot and the audit log commit or roll back together.
type TransferService struct {
	students    transferStudentReader
	grades      transferGradeReader
	assignments assignmentRepository
	seats       *SeatService
	enrollments transferEnrollmentStore
	logs        transferLogWriter
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewTransferService constructs TransferService.
func NewTransferService(students transferStudentReader, grades transferGradeReader, assignments assignmentRepository, seats *SeatService, enrollments transferEnrollmentStore, logs transferLogWriter, tx txProvider, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *TransferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		students:    students,
		grades:      grades,
		assignments: assignments,
		seats:       seats,
		enrollments: enrollments,
		logs:        logs,
		tx:          tx,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
	}
}

// TransferSingle moves one student from the origin grade to the destination
// grade. Preconditions are checked in order and the first failure wins with
// no side effects; once mutation begins, any failure rolls everything back.
func (s *TransferService) TransferSingle(ctx context.Context, req TransferRequest) (*models.TransferReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	receipt, err := s.transferOne(ctx, req)
	if err != nil {
		s.metrics.RecordTransfer("failed")
		return nil, err
	}
	s.metrics.RecordTransfer("completed")
	s.seats.InvalidateAvailability(ctx, req.OriginGradeID, req.DestGradeID)
	return receipt, nil
}

// TransferBulk moves a batch of students between grades, best-effort: each
// student gets its own transaction, failures are collected per student and
// never undo another student's committed transfer. Destination sections are
// always auto-resolved.
func (s *TransferService) TransferBulk(ctx context.Context, req BulkTransferRequest) (*models.BulkTransferResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk transfer payload")
	}

	result := &models.BulkTransferResult{
		Transferred: make([]models.BulkTransferSuccess, 0, len(req.StudentIDs)),
		Failures:    make([]models.BulkTransferFailure, 0),
	}
	for _, studentID := range req.StudentIDs {
		receipt, err := s.transferOne(ctx, TransferRequest{
			StudentID:     studentID,
			OriginGradeID: req.OriginGradeID,
			DestGradeID:   req.DestGradeID,
			SchoolYearID:  req.SchoolYearID,
		})
		if err != nil {
			s.metrics.RecordTransfer("failed")
			appErr := appErrors.FromError(err)
			result.Failures = append(result.Failures, models.BulkTransferFailure{StudentID: studentID, Reason: appErr.Code})
			s.logger.Info("bulk transfer skipped student",
				zap.String("student_id", studentID),
				zap.String("reason", appErr.Code),
			)
			continue
		}
		s.metrics.RecordTransfer("completed")
		result.Transferred = append(result.Transferred, models.BulkTransferSuccess{StudentID: studentID, SectionID: receipt.SectionID})
	}
	result.SuccessCount = len(result.Transferred)
	s.seats.InvalidateAvailability(ctx, req.OriginGradeID, req.DestGradeID)
	return result, nil
}

// ListLogs returns the transfer audit trail.
func (s *TransferService) ListLogs(ctx context.Context, filter models.TransferLogFilter) ([]models.TransferLog, error) {
	logs, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transfer logs")
	}
	return logs, nil
}

func (s *TransferService) transferOne(ctx context.Context, req TransferRequest) (*models.TransferReceipt, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Preconditions, first failure wins.
	var student *models.Person
	if student, err = s.students.FindByID(ctx, tx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
		} else {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		return nil, err
	}
	if student.Category != models.CategoryStudent {
		err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
		return nil, err
	}
	if _, err = s.grades.FindGradeByID(ctx, tx, req.DestGradeID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "destination grade not found")
		} else {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load destination grade")
		}
		return nil, err
	}

	var origin *models.GradeAssignment
	origin, err = s.assignments.FindGradeAssignment(ctx, tx, req.StudentID, req.SchoolYearID)
	if err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotAssigned, "student is not assigned to the origin grade")
		} else {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade assignment")
		}
		return nil, err
	}
	if origin.GradeID != req.OriginGradeID {
		err = appErrors.Clone(appErrors.ErrNotAssigned, "student is not assigned to the origin grade")
		return nil, err
	}
	if origin.GradeID == req.DestGradeID {
		err = appErrors.Clone(appErrors.ErrDuplicateAssignment, "student is already assigned to the destination grade")
		return nil, err
	}

	section, sectionErr := s.assignments.FindSectionAssignment(ctx, tx, req.StudentID, req.SchoolYearID)
	if sectionErr != nil && sectionErr != sql.ErrNoRows {
		err = appErrors.Wrap(sectionErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section assignment")
		return nil, err
	}
	if req.OriginSectionID != "" && (sectionErr == sql.ErrNoRows || section.SectionID != req.OriginSectionID) {
		err = appErrors.Clone(appErrors.ErrNotAssigned, "student is not assigned to the requested origin section")
		return nil, err
	}

	var dest *models.SectionAvailability
	if dest, err = s.seats.ResolveSection(ctx, tx, req.DestGradeID, req.SchoolYearID, req.DestSectionID); err != nil {
		return nil, err
	}

	// Effects, all-or-nothing from here on.
	if err = s.assignments.DeleteGradeAssignment(ctx, tx, origin.ID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove origin grade assignment")
		return nil, err
	}

	now := time.Now().UTC()
	newAssignment := &models.GradeAssignment{
		StudentID:     req.StudentID,
		GradeID:       req.DestGradeID,
		SchoolYearID:  req.SchoolYearID,
		AssignedAt:    now,
		TransferredAt: &now,
	}
	if err = s.assignments.CreateGradeAssignment(ctx, tx, newAssignment); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create destination grade assignment")
		return nil, err
	}

	// Vacate the current section, releasing the counter of the row actually
	// deleted, then take the destination seat. A student already sitting in
	// the destination section keeps the seat untouched.
	var fromSectionID *string
	needDestSeat := true
	if sectionErr == nil {
		if section.SectionID == dest.SectionID {
			needDestSeat = false
			vacated := section.SectionID
			fromSectionID = &vacated
		} else {
			if err = s.assignments.DeleteSectionAssignment(ctx, tx, section.ID); err != nil {
				err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove origin section assignment")
				return nil, err
			}
			if err = s.seats.Release(ctx, tx, section.SectionID, req.SchoolYearID); err != nil {
				return nil, err
			}
			vacated := section.SectionID
			fromSectionID = &vacated
		}
	}
	if needDestSeat {
		if err = s.assignments.CreateSectionAssignment(ctx, tx, &models.SectionAssignment{
			StudentID:    req.StudentID,
			SectionID:    dest.SectionID,
			SchoolYearID: req.SchoolYearID,
			AssignedAt:   now,
		}); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create destination section assignment")
			return nil, err
		}
		if err = s.seats.Reserve(ctx, tx, dest.SectionID, req.SchoolYearID); err != nil {
			return nil, err
		}
	}

	var enrollmentID *string
	enrollment, enrollErr := s.enrollments.FindByStudentAndYear(ctx, tx, req.StudentID, req.SchoolYearID)
	if enrollErr != nil && enrollErr != sql.ErrNoRows {
		err = appErrors.Wrap(enrollErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		return nil, err
	}
	if enrollErr == nil {
		if err = s.enrollments.UpdatePlacement(ctx, tx, enrollment.ID, req.DestGradeID, dest.SectionID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment placement")
			return nil, err
		}
		enrollmentID = &enrollment.ID
	}

	if err = s.logs.Create(ctx, tx, &models.TransferLog{
		StudentID:     req.StudentID,
		SchoolYearID:  req.SchoolYearID,
		FromGradeID:   req.OriginGradeID,
		FromSectionID: fromSectionID,
		ToGradeID:     req.DestGradeID,
		ToSectionID:   dest.SectionID,
		MovedAt:       now,
	}); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record transfer")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transfer")
		return nil, err
	}

	return &models.TransferReceipt{
		GradeAssignmentID: newAssignment.ID,
		SectionID:         dest.SectionID,
		EnrollmentID:      enrollmentID,
	}, nil
}
