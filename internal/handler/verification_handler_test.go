package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/service"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/response"
)

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.VerificationSession
	findErr  error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]models.VerificationSession)}
}

func (m *memorySessionStore) Find(ctx context.Context, actorID string) (*models.VerificationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if s, ok := m.sessions[actorID]; ok {
		copied := s
		return &copied, nil
	}
	return nil, nil
}

func (m *memorySessionStore) Save(ctx context.Context, session *models.VerificationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ActorID] = *session
	return nil
}

func (m *memorySessionStore) Delete(ctx context.Context, actorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, actorID)
	return nil
}

type memoryDirectory struct {
	records map[string]models.StudentRecord
}

func (m *memoryDirectory) FindByPRN(ctx context.Context, prn string) (*models.StudentRecord, error) {
	if r, ok := m.records[prn]; ok {
		copied := r
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryDirectory) ListPRNs(ctx context.Context) ([]string, error) {
	return nil, nil
}

type memoryCreator struct {
	created []models.Application
}

func (m *memoryCreator) Create(ctx context.Context, app *models.Application) error {
	app.ID = "app-1"
	m.created = append(m.created, *app)
	return nil
}

func newVerificationTestHandler(store *memorySessionStore) *VerificationHandler {
	directory := &memoryDirectory{records: map[string]models.StudentRecord{
		"12345678": {PRN: "12345678", FullName: "SMITH JOHN ROBERT", Phone: "9000000000", Batch: "2024-28"},
	}}
	svc := service.NewVerificationService(store, directory, &memoryCreator{}, nil, nil)
	return NewVerificationHandler(svc)
}

func postEvent(t *testing.T, handler *VerificationHandler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler.HandleEvent(c)
	return w
}

func TestVerificationHandlerEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newVerificationTestHandler(newMemorySessionStore())

	w := postEvent(t, handler, `{"actor_id":"actor-1","type":"entry"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var prompt models.Prompt
	require.NoError(t, json.Unmarshal(data, &prompt))
	assert.Equal(t, "Please enter your 8-digit PRN Number:", prompt.Text)
}

func TestVerificationHandlerInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newVerificationTestHandler(newMemorySessionStore())

	w := postEvent(t, handler, `{"actor_id":"actor-1","type":"teleport"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postEvent(t, handler, `{"type":"entry"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerificationHandlerStoreOutage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newMemorySessionStore()
	store.findErr = errors.New("redis down")
	handler := newVerificationTestHandler(store)

	w := postEvent(t, handler, `{"actor_id":"actor-1","type":"entry"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestVerificationHandlerTextFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newMemorySessionStore()
	handler := newVerificationTestHandler(store)

	w := postEvent(t, handler, `{"actor_id":"actor-1","type":"entry"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = postEvent(t, handler, `{"actor_id":"actor-1","type":"text","value":"12345678"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PRN Verified for: SMITH JOHN ROBERT")

	session := store.sessions["actor-1"]
	assert.Equal(t, models.StateAwaitingName, session.State)
}
