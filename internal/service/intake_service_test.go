package service

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusops/escolar-api/internal/models"
	"github.com/campusops/escolar-api/pkg/config"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
)

type intakeFixture struct {
	svc         *IntakeService
	persons     *memPersons
	catalog     *memCatalog
	assignments *memAssignments
	seats       *memSeatRepo
	enrollments *memEnrollments
	payments    *memPayments
	mock        sqlmock.Sqlmock
}

func newIntakeFixture(t *testing.T, cfg config.IntakeConfig) *intakeFixture {
	tx, mock := newTxProviderMock(t)
	catalog := newMemCatalog()
	seats := newMemSeatRepo(catalog)
	persons := newMemPersons()
	assignments := newMemAssignments()
	enrollments := newMemEnrollments()
	payments := newMemPayments()
	if cfg.DefaultSectionCapacity == 0 {
		cfg.DefaultSectionCapacity = 30
	}
	seatSvc := NewSeatService(seats, catalog, nil, nil, zap.NewNop(), cfg.DefaultSectionCapacity)
	svc := NewIntakeService(persons, catalog, assignments, seatSvc, enrollments, payments, tx, cfg, nil, zap.NewNop(), nil)
	f := &intakeFixture{
		svc:         svc,
		persons:     persons,
		catalog:     catalog,
		assignments: assignments,
		seats:       seats,
		enrollments: enrollments,
		payments:    payments,
		mock:        mock,
	}
	f.catalog.addGrade("g1")
	f.catalog.addSection("g1-a", "g1", 2)
	f.catalog.addYear("year-1")
	return f
}

func birthDate() time.Time {
	return time.Date(2012, time.March, 14, 0, 0, 0, 0, time.UTC)
}

func TestIntakeServiceRegistersStudentGuardianAndEnrollment(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeConfig{EnrollmentFee: 150, AttachPendingPayment: true})

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	enrollment, err := f.svc.Intake(context.Background(), IntakeRequest{
		Student:      PersonInput{NationalID: "S-100", FullName: "Ana Solis", BirthDate: birthDate()},
		Guardian:     PersonInput{NationalID: "G-100", FullName: "Rosa Solis", BirthDate: birthDate()},
		GradeID:      "g1",
		SchoolYearID: "year-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.Equal(t, "g1-a", enrollment.SectionID)
	assert.Equal(t, 150.0, enrollment.Fee)

	student, err := f.persons.FindByNationalID(context.Background(), nil, "S-100", models.CategoryStudent)
	require.NoError(t, err)
	guardian, err := f.persons.FindByNationalID(context.Background(), nil, "G-100", models.CategoryGuardian)
	require.NoError(t, err)
	assert.Equal(t, student.ID, enrollment.StudentID)
	assert.Equal(t, guardian.ID, enrollment.GuardianID)

	assert.Equal(t, 1, f.seats.occupied("g1-a", "year-1"))

	payments, err := f.payments.ListByEnrollment(context.Background(), enrollment.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusPending, payments[0].Status)
	assert.Equal(t, 150.0, payments[0].Amount)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIntakeServiceSkipsPaymentStubWhenDisabled(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeConfig{EnrollmentFee: 150, AttachPendingPayment: false})

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	enrollment, err := f.svc.Intake(context.Background(), IntakeRequest{
		Student:      PersonInput{NationalID: "S-100", FullName: "Ana Solis", BirthDate: birthDate()},
		Guardian:     PersonInput{NationalID: "G-100", FullName: "Rosa Solis", BirthDate: birthDate()},
		GradeID:      "g1",
		SchoolYearID: "year-1",
	})
	require.NoError(t, err)

	payments, err := f.payments.ListByEnrollment(context.Background(), enrollment.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestIntakeServiceRejectsDuplicateNationalID(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeConfig{})
	f.persons.add(models.Person{ID: "stu-1", NationalID: "S-100", Category: models.CategoryStudent})

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Intake(context.Background(), IntakeRequest{
		Student:      PersonInput{NationalID: "S-100", FullName: "Ana Solis", BirthDate: birthDate()},
		Guardian:     PersonInput{NationalID: "G-100", FullName: "Rosa Solis", BirthDate: birthDate()},
		GradeID:      "g1",
		SchoolYearID: "year-1",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	// Nothing gets written when the national ID is taken.
	_, gErr := f.persons.FindByNationalID(context.Background(), nil, "G-100", models.CategoryGuardian)
	assert.Error(t, gErr)
	assert.Equal(t, 0, f.seats.occupied("g1-a", "year-1"))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIntakeServiceRejectsUnknownSchoolYear(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeConfig{})

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Intake(context.Background(), IntakeRequest{
		Student:      PersonInput{NationalID: "S-100", FullName: "Ana Solis", BirthDate: birthDate()},
		Guardian:     PersonInput{NationalID: "G-100", FullName: "Rosa Solis", BirthDate: birthDate()},
		GradeID:      "g1",
		SchoolYearID: "year-that-does-not-exist",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	// No enrollment, placement or seat may exist against a phantom year.
	_, findErr := f.enrollments.FindByStudentAndYear(context.Background(), nil, "person-2", "year-that-does-not-exist")
	assert.Error(t, findErr)
	assert.Equal(t, 0, f.seats.occupied("g1-a", "year-that-does-not-exist"))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIntakeServiceEnrollRejectsUnknownSchoolYear(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeConfig{})
	f.persons.add(models.Person{ID: "stu-1", NationalID: "S-100", Category: models.CategoryStudent})
	f.persons.add(models.Person{ID: "guard-1", NationalID: "G-100", Category: models.CategoryGuardian})

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Enroll(context.Background(), EnrollRequest{
		StudentID:    "stu-1",
		GuardianID:   "guard-1",
		GradeID:      "g1",
		SchoolYearID: "year-2099",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, 0, f.seats.occupied("g1-a", "year-2099"))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIntakeServiceReusesExistingGuardian(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeConfig{})
	f.persons.add(models.Person{ID: "guard-1", NationalID: "G-100", FullName: "Rosa Solis", Category: models.CategoryGuardian})

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	enrollment, err := f.svc.Intake(context.Background(), IntakeRequest{
		Student:      PersonInput{NationalID: "S-100", FullName: "Ana Solis", BirthDate: birthDate()},
		Guardian:     PersonInput{NationalID: "G-100", FullName: "Rosa Solis", BirthDate: birthDate()},
		GradeID:      "g1",
		SchoolYearID: "year-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "guard-1", enrollment.GuardianID)
}

func TestIntakeServiceFailsWhenGradeIsFull(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeConfig{})
	for i := 0; i < 2; i++ {
		ok, err := f.seats.Reserve(context.Background(), nil, "g1-a", "year-1", 30)
		require.NoError(t, err)
		require.True(t, ok)
	}

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Intake(context.Background(), IntakeRequest{
		Student:      PersonInput{NationalID: "S-100", FullName: "Ana Solis", BirthDate: birthDate()},
		Guardian:     PersonInput{NationalID: "G-100", FullName: "Rosa Solis", BirthDate: birthDate()},
		GradeID:      "g1",
		SchoolYearID: "year-1",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSeatUnavailable))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestIntakeServiceEnrollExistingStudent(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeConfig{})
	f.persons.add(models.Person{ID: "stu-1", NationalID: "S-100", Category: models.CategoryStudent})
	f.persons.add(models.Person{ID: "guard-1", NationalID: "G-100", Category: models.CategoryGuardian})

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	enrollment, err := f.svc.Enroll(context.Background(), EnrollRequest{
		StudentID:    "stu-1",
		GuardianID:   "guard-1",
		GradeID:      "g1",
		SchoolYearID: "year-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", enrollment.StudentID)
	assert.Equal(t, "g1-a", enrollment.SectionID)
	assert.Equal(t, 1, f.seats.occupied("g1-a", "year-1"))
}

func TestIntakeServiceEnrollRejectsSecondEnrollment(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeConfig{})
	f.persons.add(models.Person{ID: "stu-1", NationalID: "S-100", Category: models.CategoryStudent})
	f.persons.add(models.Person{ID: "guard-1", NationalID: "G-100", Category: models.CategoryGuardian})
	f.enrollments.add(models.Enrollment{ID: "enr-1", StudentID: "stu-1", SchoolYearID: "year-1", Status: models.EnrollmentStatusPending})

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Enroll(context.Background(), EnrollRequest{
		StudentID:    "stu-1",
		GuardianID:   "guard-1",
		GradeID:      "g1",
		SchoolYearID: "year-1",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
