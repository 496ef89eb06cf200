package dto

import (
	"github.com/ekene/classpulse/internal/app/models"
)

// NotificationListResponse lists a user's notifications, newest first.
type NotificationListResponse struct {
	Success       bool                   `json:"success"`
	Notifications []*models.Notification `json:"notifications"`
	Unread        int                    `json:"unread"`
}

// MarkReadResponse confirms a read-state update.
type MarkReadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
