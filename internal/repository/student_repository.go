package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
)

// StudentRepository provides read-only access to the student directory. The
// directory is owned by the registrar; this service never writes to it.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByPRN returns the student record registered under the given PRN.
// Returns sql.ErrNoRows when the PRN is not in the directory.
func (r *StudentRepository) FindByPRN(ctx context.Context, prn string) (*models.StudentRecord, error) {
	const query = `SELECT prn, full_name, phone, batch, created_at FROM students WHERE prn = $1 LIMIT 1`
	var record models.StudentRecord
	if err := r.db.GetContext(ctx, &record, query, prn); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by prn: %w", err)
	}
	return &record, nil
}

// ListPRNs returns every registered PRN. Used only for diagnostic logging
// when a lookup misses, never for decision-making.
func (r *StudentRepository) ListPRNs(ctx context.Context) ([]string, error) {
	const query = `SELECT prn FROM students ORDER BY prn`
	var prns []string
	if err := r.db.SelectContext(ctx, &prns, query); err != nil {
		return nil, fmt.Errorf("list student prns: %w", err)
	}
	return prns, nil
}
