package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusops/escolar-api/internal/models"
	"github.com/campusops/escolar-api/pkg/config"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
)

type intakePersonStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Person, error)
	FindByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string, category models.PersonCategory) (*models.Person, error)
	ExistsByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string, category models.PersonCategory) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, person *models.Person) error
}

type intakeCatalogReader interface {
	FindGradeByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Grade, error)
	FindSchoolYearByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.SchoolYear, error)
}

type intakeEnrollmentStore interface {
	FindByStudentAndYear(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID string) (*models.Enrollment, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
}

type paymentWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, payment *models.Payment) error
}

// PersonInput carries the identity fields for a person created during intake.
type PersonInput struct {
	NationalID string    `json:"national_id" validate:"required"`
	FullName   string    `json:"full_name" validate:"required"`
	BirthDate  time.Time `json:"birth_date" validate:"required"`
}

// EnrollRequest enrolls an already-registered student.
type EnrollRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	GuardianID   string `json:"guardian_id" validate:"required"`
	GradeID      string `json:"grade_id" validate:"required"`
	SchoolYearID string `json:"school_year_id" validate:"required"`
	SectionID    string `json:"section_id"`
}

// IntakeRequest registers a new student together with a guardian and enrolls
// the student in one shot.
type IntakeRequest struct {
	Student      PersonInput `json:"student" validate:"required"`
	Guardian     PersonInput `json:"guardian" validate:"required"`
	GradeID      string      `json:"grade_id" validate:"required"`
	SchoolYearID string      `json:"school_year_id" validate:"required"`
	SectionID    string      `json:"section_id"`
}

// IntakeService handles enrollment intake: registering students and
// guardians, placing the student into a grade and section, and opening the
// enrollment record. Everything a single intake produces commits atomically.
type IntakeService struct {
	persons     intakePersonStore
	catalog     intakeCatalogReader
	assignments assignmentRepository
	seats       *SeatService
	enrollments intakeEnrollmentStore
	payments    paymentWriter
	tx          txProvider
	cfg         config.IntakeConfig
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewIntakeService constructs IntakeService.
func NewIntakeService(persons intakePersonStore, catalog intakeCatalogReader, assignments assignmentRepository, seats *SeatService, enrollments intakeEnrollmentStore, payments paymentWriter, tx txProvider, cfg config.IntakeConfig, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *IntakeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		persons:     persons,
		catalog:     catalog,
		assignments: assignments,
		seats:       seats,
		enrollments: enrollments,
		payments:    payments,
		tx:          tx,
		cfg:         cfg,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
	}
}

// Enroll opens an enrollment for an existing student. The enrollment row,
// placement rows and seat reservation commit together.
func (s *IntakeService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
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

	var student *models.Person
	if student, err = s.persons.FindByID(ctx, tx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
		} else {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		s.metrics.RecordIntake("failed")
		return nil, err
	}
	if student.Category != models.CategoryStudent {
		err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
		s.metrics.RecordIntake("failed")
		return nil, err
	}
	var guardian *models.Person
	if guardian, err = s.persons.FindByID(ctx, tx, req.GuardianID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		} else {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
		}
		s.metrics.RecordIntake("failed")
		return nil, err
	}
	if guardian.Category != models.CategoryGuardian {
		err = appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		s.metrics.RecordIntake("failed")
		return nil, err
	}

	var enrollment *models.Enrollment
	if enrollment, err = s.enroll(ctx, tx, student.ID, guardian.ID, req.GradeID, req.SchoolYearID, req.SectionID); err != nil {
		s.metrics.RecordIntake("failed")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit enrollment")
		s.metrics.RecordIntake("failed")
		return nil, err
	}
	s.metrics.RecordIntake("completed")
	s.seats.InvalidateAvailability(ctx, req.GradeID)
	return enrollment, nil
}

// Intake registers a new student and guardian, then enrolls the student.
// The guardian is matched by national ID when already registered; a student
// national ID already in use rejects the whole intake before any write.
func (s *IntakeService) Intake(ctx context.Context, req IntakeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intake payload")
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

	var exists bool
	if exists, err = s.persons.ExistsByNationalID(ctx, tx, req.Student.NationalID, models.CategoryStudent); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student national id")
		s.metrics.RecordIntake("failed")
		return nil, err
	}
	if exists {
		err = appErrors.Clone(appErrors.ErrConflict, "a student with this national id is already registered")
		s.metrics.RecordIntake("failed")
		return nil, err
	}

	guardian, guardianErr := s.persons.FindByNationalID(ctx, tx, req.Guardian.NationalID, models.CategoryGuardian)
	if guardianErr != nil && guardianErr != sql.ErrNoRows {
		err = appErrors.Wrap(guardianErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up guardian")
		s.metrics.RecordIntake("failed")
		return nil, err
	}
	if guardianErr == sql.ErrNoRows {
		guardian = &models.Person{
			NationalID: req.Guardian.NationalID,
			FullName:   req.Guardian.FullName,
			BirthDate:  req.Guardian.BirthDate,
			Category:   models.CategoryGuardian,
		}
		if err = s.persons.Create(ctx, tx, guardian); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register guardian")
			s.metrics.RecordIntake("failed")
			return nil, err
		}
	}

	student := &models.Person{
		NationalID: req.Student.NationalID,
		FullName:   req.Student.FullName,
		BirthDate:  req.Student.BirthDate,
		Category:   models.CategoryStudent,
	}
	if err = s.persons.Create(ctx, tx, student); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register student")
		s.metrics.RecordIntake("failed")
		return nil, err
	}

	var enrollment *models.Enrollment
	if enrollment, err = s.enroll(ctx, tx, student.ID, guardian.ID, req.GradeID, req.SchoolYearID, req.SectionID); err != nil {
		s.metrics.RecordIntake("failed")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit intake")
		s.metrics.RecordIntake("failed")
		return nil, err
	}
	s.metrics.RecordIntake("completed")
	s.seats.InvalidateAvailability(ctx, req.GradeID)

	s.logger.Info("intake completed",
		zap.String("student_id", student.ID),
		zap.String("enrollment_id", enrollment.ID),
		zap.String("grade_id", req.GradeID),
	)
	return enrollment, nil
}

// enroll performs the placement and enrollment steps shared by both intake
// entry points, inside the caller's transaction.
func (s *IntakeService) enroll(ctx context.Context, tx *sqlx.Tx, studentID, guardianID, gradeID, schoolYearID, sectionID string) (*models.Enrollment, error) {
	if _, err := s.catalog.FindGradeByID(ctx, tx, gradeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if _, err := s.catalog.FindSchoolYearByID(ctx, tx, schoolYearID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school year")
	}

	if _, err := s.enrollments.FindByStudentAndYear(ctx, tx, studentID, schoolYearID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has an enrollment for this school year")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if _, err := s.assignments.FindGradeAssignment(ctx, tx, studentID, schoolYearID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateAssignment, "student already has a grade assignment for this school year")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check grade assignment")
	}

	dest, err := s.seats.ResolveSection(ctx, tx, gradeID, schoolYearID, sectionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.assignments.CreateGradeAssignment(ctx, tx, &models.GradeAssignment{
		StudentID:    studentID,
		GradeID:      gradeID,
		SchoolYearID: schoolYearID,
		AssignedAt:   now,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade assignment")
	}
	if err := s.assignments.CreateSectionAssignment(ctx, tx, &models.SectionAssignment{
		StudentID:    studentID,
		SectionID:    dest.SectionID,
		SchoolYearID: schoolYearID,
		AssignedAt:   now,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section assignment")
	}
	if err := s.seats.Reserve(ctx, tx, dest.SectionID, schoolYearID); err != nil {
		return nil, err
	}

	enrollment := &models.Enrollment{
		StudentID:    studentID,
		GuardianID:   guardianID,
		GradeID:      gradeID,
		SectionID:    dest.SectionID,
		SchoolYearID: schoolYearID,
		Status:       models.EnrollmentStatusPending,
		Fee:          s.cfg.EnrollmentFee,
	}
	if err := s.enrollments.Create(ctx, tx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	if s.cfg.AttachPendingPayment && s.cfg.EnrollmentFee > 0 {
		if err := s.payments.Create(ctx, tx, &models.Payment{
			EnrollmentID: enrollment.ID,
			Concept:      "enrollment fee",
			Amount:       s.cfg.EnrollmentFee,
			Status:       models.PaymentStatusPending,
		}); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment payment")
		}
	}

	return enrollment, nil
}
