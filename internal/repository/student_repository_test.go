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
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryFindByPRN(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"prn", "full_name", "phone", "batch", "created_at"}).
		AddRow("12345678", "SMITH JOHN ROBERT", "9000000000", "2024-28", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT prn, full_name, phone, batch, created_at FROM students WHERE prn = $1 LIMIT 1")).
		WithArgs("12345678").
		WillReturnRows(rows)

	record, err := repo.FindByPRN(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, "SMITH JOHN ROBERT", record.FullName)
	assert.Equal(t, "9000000000", record.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByPRNMissing(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT prn, full_name").
		WithArgs("99999999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPRN(context.Background(), "99999999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListPRNs(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"prn"}).AddRow("11111111").AddRow("22222222")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT prn FROM students ORDER BY prn")).
		WillReturnRows(rows)

	prns, err := repo.ListPRNs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"11111111", "22222222"}, prns)
	assert.NoError(t, mock.ExpectationsWereMet())
}
