package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
)

// ApplicationRepository manages persistence for bonafide applications.
// Applications are insert-once records: the snapshot fields never change
// after creation and rows are never deleted.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application. The ID is store-generated and the status
// always starts as Pending. A failed insert leaves no record behind; the
// statement is a single atomic INSERT.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	app.Status = models.ApplicationStatusPending
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO applications (id, prn, name, phone, batch, year, branch, purpose, status, submitted_at)
        VALUES (:id, :prn, :name, :phone, :batch, :year, :branch, :purpose, :status, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// FindByID fetches an application by ID. Returns sql.ErrNoRows when absent.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	const query = `SELECT id, prn, name, phone, batch, year, branch, purpose, status, submitted_at, processed_at, processed_by
        FROM applications WHERE id = $1 LIMIT 1`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	return &app, nil
}

// List returns applications matching the provided filters with a total count.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	baseQuery := `FROM applications WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(prn LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"submitted_at": true,
		"processed_at": true,
		"prn":          true,
		"status":       true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "submitted_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT id, prn, name, phone, batch, year, branch, purpose, status, submitted_at, processed_at, processed_by %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		baseQuery, sortBy, sortOrder, pageSize, offset)

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	return apps, total, nil
}

// UpdateStatus applies a status transition in a single atomic UPDATE. There
// is no read-modify-write cycle, so concurrent transitions on the same
// application cannot silently revert each other; the store serialises them
// and last write wins. Returns sql.ErrNoRows when the application is absent.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, processedBy string, processedAt time.Time) error {
	const query = `UPDATE applications SET status = $2, processed_by = $3, processed_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, processedBy, processedAt)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
