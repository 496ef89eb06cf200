package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ekene/classpulse/internal/app/models"
)

// Storage errors shared by both backends
var (
	ErrDuplicateCheckIn  = errors.New("check-in already recorded for this session and student")
	ErrDuplicateSession  = errors.New("session code already exists")
	ErrNotificationOwner = errors.New("notification belongs to another user")
)

// LecturerRef identifies a session owner. Legacy sessions may lack an owner
// id, so every owner-scoped query matches on id when present and always on
// the display name as well.
type LecturerRef struct {
	ID   *int64
	Name string
}

// SessionFilter narrows owner-scoped session queries and deletes.
type SessionFilter struct {
	SessionCode string
	CourseCode  string
}

// CheckInFilter narrows owner-scoped check-in queries and deletes.
type CheckInFilter struct {
	SessionCode string
	CourseCode  string
	Limit       int
}

// SessionStore is the authoritative state for attendance sessions. Find
// methods return (nil, nil) when nothing matches.
type SessionStore interface {
	Create(ctx context.Context, session *models.AttendanceSession) error
	FindByCode(ctx context.Context, code string) (*models.AttendanceSession, error)
	FindActiveByLecturer(ctx context.Context, owner LecturerRef, now time.Time) (*models.AttendanceSession, error)
	DeleteExpiredByLecturer(ctx context.Context, owner LecturerRef, now time.Time) (int64, error)
	DeleteAllExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteByLecturer(ctx context.Context, owner LecturerRef, filter SessionFilter) (int64, error)
	ListRecentByLecturer(ctx context.Context, owner LecturerRef, limit int) ([]*models.AttendanceSession, error)
}

// CheckInStore records one immutable entry per (sessionCode, studentId).
// The persistent backend enforces that key with a unique index and surfaces
// violations as ErrDuplicateCheckIn; the fallback backend relies on the
// check-in processor's dedupe step.
type CheckInStore interface {
	Create(ctx context.Context, log *models.CheckInLog) error
	FindBySessionAndStudent(ctx context.Context, sessionCode string, studentID int64) (*models.CheckInLog, error)
	ListByLecturer(ctx context.Context, owner LecturerRef, filter CheckInFilter) ([]*models.CheckInLog, error)
	DeleteByLecturer(ctx context.Context, owner LecturerRef, filter CheckInFilter) (int64, error)
}

// UserDirectory resolves users for login and lecturer attribution. Find
// methods return (nil, nil) when nothing matches.
type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindLecturerByName(ctx context.Context, name string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// NotificationStore is the append-only notification log with read flags.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, id string, userID int64) error
}
