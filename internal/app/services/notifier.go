package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/app/repositories"
	"github.com/ekene/classpulse/internal/pkg/queue"
)

// Notifier is the best-effort post-commit hook fired after a successful
// check-in write. Callers swallow and log any error it returns; notification
// delivery never participates in the check-in outcome.
type Notifier interface {
	NotifyCheckIn(ctx context.Context, lecturerID int64, log *models.CheckInLog) error
}

// CheckInNotification is the queue payload for a check-in notification.
type CheckInNotification struct {
	LecturerID  int64     `json:"lecturerId"`
	StudentName string    `json:"studentName"`
	CourseCode  string    `json:"courseCode"`
	CourseName  string    `json:"courseName"`
	SessionCode string    `json:"sessionCode"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageTypeCheckIn tags check-in messages on the queue.
const MessageTypeCheckIn = "checkin"

// Notification builds the log entry the worker appends for this payload.
func (c CheckInNotification) Notification() *models.Notification {
	return &models.Notification{
		UserID:  c.LecturerID,
		Type:    models.NotificationCheckIn,
		Title:   fmt.Sprintf("Check-in: %s", c.CourseCode),
		Message: fmt.Sprintf("%s checked in to %s (%s)", c.StudentName, c.CourseName, c.SessionCode),
	}
}

// QueueNotifier publishes check-in notifications to a delivery queue consumed
// by the notifier worker.
type QueueNotifier struct {
	queue queue.Queue
}

// NewQueueNotifier creates a queue-backed notifier.
func NewQueueNotifier(q queue.Queue) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

// NotifyCheckIn enqueues a notification for the lecturer.
func (n *QueueNotifier) NotifyCheckIn(ctx context.Context, lecturerID int64, log *models.CheckInLog) error {
	payload := CheckInNotification{
		LecturerID:  lecturerID,
		StudentName: log.StudentName,
		CourseCode:  log.CourseCode,
		CourseName:  log.CourseName,
		SessionCode: log.SessionCode,
		Timestamp:   log.Timestamp,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.queue.Publish(ctx, queue.Message{Type: MessageTypeCheckIn, Body: body})
}

// StoreNotifier appends the notification row synchronously. Used when no
// queue backend is configured.
type StoreNotifier struct {
	store repositories.NotificationStore
}

// NewStoreNotifier creates a store-backed notifier.
func NewStoreNotifier(store repositories.NotificationStore) *StoreNotifier {
	return &StoreNotifier{store: store}
}

// NotifyCheckIn writes the notification row directly.
func (n *StoreNotifier) NotifyCheckIn(ctx context.Context, lecturerID int64, log *models.CheckInLog) error {
	payload := CheckInNotification{
		LecturerID:  lecturerID,
		StudentName: log.StudentName,
		CourseCode:  log.CourseCode,
		CourseName:  log.CourseName,
		SessionCode: log.SessionCode,
		Timestamp:   log.Timestamp,
	}
	return n.store.Create(ctx, payload.Notification())
}

// RunNotifierWorker consumes queued notifications and appends them to the
// notification store until the context is cancelled.
func RunNotifierWorker(ctx context.Context, q queue.Queue, store repositories.NotificationStore, lgr zerolog.Logger) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	lgr.Info().Msg("Notifier worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != MessageTypeCheckIn {
			continue
		}
		var payload CheckInNotification
		if err := json.Unmarshal(msg.Body, &payload); err != nil {
			lgr.Warn().Err(err).Msg("Dropping malformed notification message")
			continue
		}
		if err := store.Create(ctx, payload.Notification()); err != nil {
			lgr.Error().Err(err).
				Int64("lecturerId", payload.LecturerID).
				Str("sessionCode", payload.SessionCode).
				Msg("Failed to append notification")
		}
	}

	lgr.Info().Msg("Notifier worker stopped")
	return nil
}
