package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/app/models/dto"
	"github.com/ekene/classpulse/internal/app/repositories"
	"github.com/ekene/classpulse/internal/pkg/apperrors"
)

type notificationService struct {
	store repositories.NotificationStore
}

// NewNotificationService creates the notification service.
func NewNotificationService(store repositories.NotificationStore) NotificationService {
	return &notificationService{store: store}
}

// List returns the user's notifications with the unread count.
func (s *notificationService) List(ctx context.Context, userID int64) (*dto.NotificationListResponse, error) {
	notifications, err := s.store.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return &dto.NotificationListResponse{
		Success:       true,
		Notifications: notifications,
		Unread:        unread,
	}, nil
}

// MarkRead flags one of the user's notifications as read. Touching another
// user's notification reports not-found rather than revealing its existence.
func (s *notificationService) MarkRead(ctx context.Context, userID int64, notificationID string) error {
	err := s.store.MarkRead(ctx, notificationID, userID)
	if errors.Is(err, repositories.ErrNotificationOwner) {
		return apperrors.NewCustomError(apperrors.ErrNotificationNotFound, "Notification not found")
	}
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
