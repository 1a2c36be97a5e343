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

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
)

func newApplicationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.Application{PRN: "12345678", Name: "SMITH JOHN ROBERT", Phone: "9000000000", Batch: "2024-28"}
	err := repo.Create(context.Background(), app)
	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.False(t, app.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCreateForcesPending(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.Application{PRN: "12345678", Name: "SMITH JOHN ROBERT", Phone: "9000000000", Batch: "2024-28", Status: models.ApplicationStatusApproved}
	err := repo.Create(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	columns := []string{"id", "prn", "name", "phone", "batch", "year", "branch", "purpose", "status", "submitted_at", "processed_at", "processed_by"}
	rows := sqlmock.NewRows(columns).
		AddRow("app-1", "12345678", "SMITH JOHN ROBERT", "9000000000", "2024-28", nil, nil, nil, "Pending", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, prn, name, phone, batch, year, branch, purpose, status, submitted_at, processed_at, processed_by\n        FROM applications WHERE id = $1 LIMIT 1")).
		WithArgs("app-1").
		WillReturnRows(rows)

	app, err := repo.FindByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "12345678", app.PRN)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("SELECT id, prn, name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryList(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	columns := []string{"id", "prn", "name", "phone", "batch", "year", "branch", "purpose", "status", "submitted_at", "processed_at", "processed_by"}
	rows := sqlmock.NewRows(columns).
		AddRow("app-1", "12345678", "SMITH JOHN ROBERT", "9000000000", "2024-28", nil, nil, nil, "Pending", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, prn, name, phone, batch, year, branch, purpose, status, submitted_at, processed_at, processed_by FROM applications WHERE 1=1 AND status = $1 ORDER BY submitted_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.ApplicationStatusPending).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM applications WHERE 1=1 AND status = $1")).
		WithArgs(models.ApplicationStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	apps, total, err := repo.List(context.Background(), models.ApplicationFilter{Status: models.ApplicationStatusPending})
	require.NoError(t, err)
	assert.Len(t, apps, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	// An unknown sort column falls back to submitted_at.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY submitted_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.ApplicationFilter{SortBy: "phone; DROP TABLE applications"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	processedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status = $2, processed_by = $3, processed_at = $4 WHERE id = $1")).
		WithArgs("app-1", models.ApplicationStatusApproved, "admin-1", processedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "app-1", models.ApplicationStatusApproved, "admin-1", processedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("UPDATE applications SET status").
		WithArgs("missing", models.ApplicationStatusApproved, "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.ApplicationStatusApproved, "admin-1", time.Now().UTC())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
