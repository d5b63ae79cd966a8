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

func newPersonRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPersonRepositoryExistsByNationalID(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM persons WHERE national_id = $1 AND category = $2")).
		WithArgs("S-100", models.CategoryStudent).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByNationalID(context.Background(), nil, "S-100", models.CategoryStudent)
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepositoryExistsByNationalIDAbsent(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	mock.ExpectQuery("SELECT 1 FROM persons").
		WithArgs("S-100", models.CategoryStudent).
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByNationalID(context.Background(), nil, "S-100", models.CategoryStudent)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPersonRepositoryFindByNationalIDScopesCategory(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	rows := sqlmock.NewRows([]string{"id", "national_id", "full_name", "birth_date", "category", "created_at", "updated_at"}).
		AddRow("guard-1", "G-100", "Rosa Solis", time.Now(), models.CategoryGuardian, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE national_id = $1 AND category = $2")).
		WithArgs("G-100", models.CategoryGuardian).
		WillReturnRows(rows)

	guardian, err := repo.FindByNationalID(context.Background(), nil, "G-100", models.CategoryGuardian)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGuardian, guardian.Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	mock.ExpectExec("INSERT INTO persons").
		WillReturnResult(sqlmock.NewResult(0, 1))

	person := &models.Person{NationalID: "S-100", FullName: "Ana Solis", Category: models.CategoryStudent}
	require.NoError(t, repo.Create(context.Background(), nil, person))
	assert.NotEmpty(t, person.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
