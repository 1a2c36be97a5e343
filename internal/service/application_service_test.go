package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	appErrors "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/errors"
)

type mockApplicationRepo struct {
	apps      map[string]models.Application
	listErr   error
	updateErr error
	updated   []models.ApplicationStatus
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	if a, ok := m.apps[id]; ok {
		copied := a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var list []models.Application
	for _, a := range m.apps {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		list = append(list, a)
	}
	return list, len(list), nil
}

func (m *mockApplicationRepo) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, processedBy string, processedAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	a, ok := m.apps[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	a.ProcessedAt = &processedAt
	a.ProcessedBy = &processedBy
	m.apps[id] = a
	m.updated = append(m.updated, status)
	return nil
}

type mockNotifier struct {
	notified []models.ApplicationStatus
}

func (m *mockNotifier) NotifyStatusChange(app *models.Application) {
	m.notified = append(m.notified, app.Status)
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, Email: "admin@example.com"}
}

func pendingApplication(id string) models.Application {
	return models.Application{
		ID:          id,
		PRN:         "12345678",
		Name:        "SMITH JOHN ROBERT",
		Phone:       "9000000000",
		Batch:       "2024-28",
		Status:      models.ApplicationStatusPending,
		SubmittedAt: time.Now().UTC(),
	}
}

func TestSetStatusApprove(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.Application{"app-1": pendingApplication("app-1")}}
	notifier := &mockNotifier{}
	svc := NewApplicationService(repo, notifier, nil, nil)

	app, err := svc.SetStatus(context.Background(), "app-1", models.ApplicationStatusApproved, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusApproved, app.Status)
	require.NotNil(t, app.ProcessedBy)
	assert.Equal(t, "admin-1", *app.ProcessedBy)
	assert.NotNil(t, app.ProcessedAt)
	assert.Equal(t, []models.ApplicationStatus{models.ApplicationStatusApproved}, notifier.notified)
}

func TestSetStatusIdempotentRepeat(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.Application{"app-1": pendingApplication("app-1")}}
	notifier := &mockNotifier{}
	svc := NewApplicationService(repo, notifier, nil, nil)

	_, err := svc.SetStatus(context.Background(), "app-1", models.ApplicationStatusApproved, adminClaims())
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), "app-1", models.ApplicationStatusApproved, adminClaims())
	require.NoError(t, err)

	// Re-setting the same status succeeds but does not notify again.
	assert.Len(t, notifier.notified, 1)
	assert.Len(t, repo.updated, 2)
}

func TestSetStatusBackToPending(t *testing.T) {
	app := pendingApplication("app-1")
	app.Status = models.ApplicationStatusApproved
	repo := &mockApplicationRepo{apps: map[string]models.Application{"app-1": app}}
	svc := NewApplicationService(repo, &mockNotifier{}, nil, nil)

	got, err := svc.SetStatus(context.Background(), "app-1", models.ApplicationStatusPending, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, got.Status)
}

func TestSetStatusInvalid(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.Application{"app-1": pendingApplication("app-1")}}
	svc := NewApplicationService(repo, &mockNotifier{}, nil, nil)

	_, err := svc.SetStatus(context.Background(), "app-1", models.ApplicationStatus("Archived"), adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestSetStatusUnknownApplication(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.Application{}}
	svc := NewApplicationService(repo, &mockNotifier{}, nil, nil)

	_, err := svc.SetStatus(context.Background(), "missing", models.ApplicationStatusApproved, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSetStatusRequiresActor(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.Application{"app-1": pendingApplication("app-1")}}
	svc := NewApplicationService(repo, &mockNotifier{}, nil, nil)

	_, err := svc.SetStatus(context.Background(), "app-1", models.ApplicationStatusApproved, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestSetStatusStoreFailureLeavesRecord(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.Application{"app-1": pendingApplication("app-1")}}
	repo.updateErr = errors.New("connection reset")
	notifier := &mockNotifier{}
	svc := NewApplicationService(repo, notifier, nil, nil)

	_, err := svc.SetStatus(context.Background(), "app-1", models.ApplicationStatusApproved, adminClaims())
	require.Error(t, err)
	assert.Equal(t, models.ApplicationStatusPending, repo.apps["app-1"].Status)
	assert.Empty(t, notifier.notified)
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.Application{}}
	svc := NewApplicationService(repo, &mockNotifier{}, nil, nil)

	_, _, err := svc.List(context.Background(), models.ApplicationFilter{Status: "Archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}

type pagingApplicationRepo struct {
	apps  []models.Application
	pages []int
}

func (m *pagingApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	return nil, sql.ErrNoRows
}

func (m *pagingApplicationRepo) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, processedBy string, processedAt time.Time) error {
	return sql.ErrNoRows
}

func (m *pagingApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	m.pages = append(m.pages, filter.Page)
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(m.apps) {
		return nil, len(m.apps), nil
	}
	end := start + filter.PageSize
	if end > len(m.apps) {
		end = len(m.apps)
	}
	return m.apps[start:end], len(m.apps), nil
}

func TestExportCSV(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.Application{"app-1": pendingApplication("app-1")}}
	svc := NewApplicationService(repo, &mockNotifier{}, nil, nil)

	payload, err := svc.ExportCSV(context.Background(), models.ApplicationFilter{})
	require.NoError(t, err)
	out := string(payload)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,prn,name,phone,batch,status,submitted_at,processed_at,processed_by", lines[0])
	assert.Contains(t, lines[1], "12345678")
	assert.Contains(t, lines[1], "Pending")
}

func TestExportCSVWalksAllPages(t *testing.T) {
	repo := &pagingApplicationRepo{}
	for i := 0; i < 2*exportPageSize+37; i++ {
		repo.apps = append(repo.apps, pendingApplication(fmt.Sprintf("app-%04d", i)))
	}
	svc := NewApplicationService(repo, &mockNotifier{}, nil, nil)

	payload, err := svc.ExportCSV(context.Background(), models.ApplicationFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, len(repo.apps)+1)
	assert.Equal(t, []int{1, 2, 3}, repo.pages)
	assert.Contains(t, lines[len(lines)-1], repo.apps[len(repo.apps)-1].ID)
}
