package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/config"
)

type recordingSender struct {
	mu       sync.Mutex
	received []StatusNotification
	failures int
}

func (r *recordingSender) Send(ctx context.Context, n StatusNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("transport unavailable")
	}
	r.received = append(r.received, n)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

func TestNotificationServiceDelivers(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationService(sender, config.NotificationsConfig{Workers: 1}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.NotifyStatusChange(&models.Application{ID: "app-1", PRN: "12345678", Status: models.ApplicationStatusApproved})

	require.Eventually(t, func() bool { return sender.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, "app-1", sender.received[0].ApplicationID)
	assert.Equal(t, models.ApplicationStatusApproved, sender.received[0].Status)
}

func TestNotificationServiceRetries(t *testing.T) {
	sender := &recordingSender{failures: 1}
	svc := NewNotificationService(sender, config.NotificationsConfig{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.NotifyStatusChange(&models.Application{ID: "app-1", PRN: "12345678", Status: models.ApplicationStatusRejected})

	require.Eventually(t, func() bool { return sender.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationServiceBeforeStart(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationService(sender, config.NotificationsConfig{}, nil)

	// Enqueue failure is swallowed; the status change already happened.
	svc.NotifyStatusChange(&models.Application{ID: "app-1", PRN: "12345678", Status: models.ApplicationStatusApproved})
	assert.Zero(t, sender.count())
}
