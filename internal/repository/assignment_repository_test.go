package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/escolar-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryFindGradeAssignment(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "grade_id", "school_year_id", "assigned_at", "transferred_at"}).
		AddRow("ga-1", "stu-1", "grade-1", "year-1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_assignments WHERE student_id = $1 AND school_year_id = $2")).
		WithArgs("stu-1", "year-1").
		WillReturnRows(rows)

	assignment, err := repo.FindGradeAssignment(context.Background(), nil, "stu-1", "year-1")
	require.NoError(t, err)
	assert.Equal(t, "grade-1", assignment.GradeID)
	assert.Nil(t, assignment.TransferredAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindGradeAssignmentMissing(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("FROM grade_assignments").
		WithArgs("stu-1", "year-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindGradeAssignment(context.Background(), nil, "stu-1", "year-1")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestAssignmentRepositoryCreateGradeAssignment(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO grade_assignments").
		WithArgs(sqlmock.AnyArg(), "stu-1", "grade-1", "year-1", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assignment := &models.GradeAssignment{StudentID: "stu-1", GradeID: "grade-1", SchoolYearID: "year-1"}
	require.NoError(t, repo.CreateGradeAssignment(context.Background(), nil, assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.AssignedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCurrentPlacement(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"grade_id", "section_id"}).
		AddRow("grade-1", "sec-1")
	mock.ExpectQuery("LEFT JOIN section_assignments").
		WithArgs("stu-1", "year-1").
		WillReturnRows(rows)

	placement, err := repo.CurrentPlacement(context.Background(), nil, "stu-1", "year-1")
	require.NoError(t, err)
	assert.Equal(t, "grade-1", placement.GradeID)
	assert.Equal(t, "sec-1", placement.SectionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteSectionAssignment(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("DELETE FROM section_assignments").
		WithArgs("sa-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteSectionAssignment(context.Background(), nil, "sa-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
