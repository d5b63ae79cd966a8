package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeatRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSeatRepositoryReserveTakesSeat(t *testing.T) {
	db, mock, cleanup := newSeatRepoMock(t)
	defer cleanup()
	repo := NewSeatRepository(db)

	mock.ExpectExec("INSERT INTO seat_counters").
		WithArgs(sqlmock.AnyArg(), "sec-1", "year-1", 30).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Reserve(context.Background(), nil, "sec-1", "year-1", 30)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepositoryReserveFullSection(t *testing.T) {
	db, mock, cleanup := newSeatRepoMock(t)
	defer cleanup()
	repo := NewSeatRepository(db)

	// The conditional upsert touches no row when available = 0.
	mock.ExpectExec("INSERT INTO seat_counters").
		WithArgs(sqlmock.AnyArg(), "sec-1", "year-1", 30).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Reserve(context.Background(), nil, "sec-1", "year-1", 30)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepositoryRelease(t *testing.T) {
	db, mock, cleanup := newSeatRepoMock(t)
	defer cleanup()
	repo := NewSeatRepository(db)

	mock.ExpectExec("UPDATE seat_counters").
		WithArgs("sec-1", "year-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Release(context.Background(), nil, "sec-1", "year-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepositoryListAvailabilityKeepsSectionOrder(t *testing.T) {
	db, mock, cleanup := newSeatRepoMock(t)
	defer cleanup()
	repo := NewSeatRepository(db)

	rows := sqlmock.NewRows([]string{"section_id", "section_name", "capacity", "occupied", "available"}).
		AddRow("sec-1", "Section A", 30, 30, 0).
		AddRow("sec-2", "Section B", 30, 12, 18)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.id ASC")).
		WithArgs("grade-1", "year-1", 30).
		WillReturnRows(rows)

	sections, err := repo.ListAvailability(context.Background(), nil, "grade-1", "year-1", 30)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "sec-1", sections[0].SectionID)
	assert.Equal(t, 0, sections[0].Available)
	assert.Equal(t, 18, sections[1].Available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepositoryResizeCapacity(t *testing.T) {
	db, mock, cleanup := newSeatRepoMock(t)
	defer cleanup()
	repo := NewSeatRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SET capacity = $2, available = GREATEST($2 - occupied, 0)")).
		WithArgs("sec-1", 40).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.ResizeCapacity(context.Background(), nil, "sec-1", 40))
	require.NoError(t, mock.ExpectationsWereMet())
}
