package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	appErrors "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/errors"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/export"
)

type applicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, processedBy string, processedAt time.Time) error
}

type statusNotifier interface {
	NotifyStatusChange(app *models.Application)
}

type transitionMetrics interface {
	StatusTransition(status models.ApplicationStatus)
}

// ApplicationService governs the review lifecycle of submitted applications.
// Transitions are driven only by authenticated administrator actions; the
// target status must come from the closed Pending/Approved/Rejected set.
// Setting the current status again is an idempotent success, and re-selecting
// Pending stays permitted.
type ApplicationService struct {
	repo     applicationRepository
	notifier statusNotifier
	metrics  transitionMetrics
	exporter *export.CSVExporter
	logger   *zap.Logger
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(repo applicationRepository, notifier statusNotifier, metrics transitionMetrics, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{repo: repo, notifier: notifier, metrics: metrics, exporter: export.NewCSVExporter(), logger: logger}
}

// List returns applications with pagination metadata.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidStatus, "unknown status filter")
	}
	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return apps, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single application.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

// SetStatus applies an administrator status transition. The update is a
// single atomic statement against the store: a failure leaves the record
// unchanged and the action can simply be re-issued.
func (s *ApplicationService) SetStatus(ctx context.Context, id string, status models.ApplicationStatus, actor *models.JWTClaims) (*models.Application, error) {
	if !status.Valid() {
		return nil, appErrors.ErrInvalidStatus
	}
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load application")
	}

	processedAt := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, status, actor.UserID, processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update application status")
	}

	previous := app.Status
	app.Status = status
	app.ProcessedAt = &processedAt
	processedBy := actor.UserID
	app.ProcessedBy = &processedBy

	if s.metrics != nil {
		s.metrics.StatusTransition(status)
	}
	if s.notifier != nil && previous != status {
		s.notifier.NotifyStatusChange(app)
	}
	s.logger.Info("application status updated",
		zap.String("application_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("processed_by", actor.UserID),
	)
	return app, nil
}

const exportPageSize = 500

// ExportCSV renders the application register matching the filter as CSV.
// The export walks every page of the filtered register so the file holds
// the complete set, not just the first page.
func (s *ApplicationService) ExportCSV(ctx context.Context, filter models.ApplicationFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = exportPageSize

	var apps []models.Application
	for {
		batch, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
		}
		apps = append(apps, batch...)
		if len(batch) == 0 || len(apps) >= total {
			break
		}
		filter.Page++
	}

	data := export.Dataset{
		Headers: []string{"id", "prn", "name", "phone", "batch", "status", "submitted_at", "processed_at", "processed_by"},
	}
	for _, app := range apps {
		row := map[string]string{
			"id":           app.ID,
			"prn":          app.PRN,
			"name":         app.Name,
			"phone":        app.Phone,
			"batch":        app.Batch,
			"status":       string(app.Status),
			"submitted_at": app.SubmittedAt.Format(time.RFC3339),
		}
		if app.ProcessedAt != nil {
			row["processed_at"] = app.ProcessedAt.Format(time.RFC3339)
		}
		if app.ProcessedBy != nil {
			row["processed_by"] = *app.ProcessedBy
		}
		data.Rows = append(data.Rows, row)
	}

	payload, err := s.exporter.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return payload, nil
}
