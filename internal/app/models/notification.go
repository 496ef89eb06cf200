package models

import (
	"time"
)

// Notification is one entry in the append-only notification log. Check-in
// writes one for the owning lecturer as a best-effort side effect.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Notification types written by the attendance core.
const (
	NotificationCheckIn = "ATTENDANCE_CHECKIN"
)
