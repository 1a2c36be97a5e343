package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/config"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/jobs"
)

// StatusNotification is the payload delivered to the requester once an
// administrator processes their application.
type StatusNotification struct {
	ApplicationID string
	PRN           string
	Status        models.ApplicationStatus
}

// NotificationSender delivers a status notification to the requester through
// the messaging transport. The transport collaborator owns message formatting
// and delivery guarantees.
type NotificationSender interface {
	Send(ctx context.Context, notification StatusNotification) error
}

// LogSender is the default sender used when no transport is attached; it
// only records the notification.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the notification.
func (s *LogSender) Send(_ context.Context, n StatusNotification) error {
	s.Logger.Info("status notification",
		zap.String("application_id", n.ApplicationID),
		zap.String("prn", n.PRN),
		zap.String("status", string(n.Status)),
	)
	return nil
}

// NotificationService dispatches requester notifications through the
// background job queue so that slow transports never block an administrator
// action.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its backing queue.
func NewNotificationService(sender NotificationSender, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(StatusNotification)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return sender.Send(ctx, notification)
	}
	queue := jobs.NewQueue("status-notifications", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &NotificationService{queue: queue, logger: logger}
}

// Start begins queue consumption.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyStatusChange enqueues a requester notification for the processed
// application. Failures to enqueue are logged, never surfaced: the status
// transition itself has already been committed.
func (s *NotificationService) NotifyStatusChange(app *models.Application) {
	err := s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "status_change",
		Payload: StatusNotification{
			ApplicationID: app.ID,
			PRN:           app.PRN,
			Status:        app.Status,
		},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue status notification", zap.String("application_id", app.ID), zap.Error(err))
	}
}
