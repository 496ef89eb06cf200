package services

import (
	"context"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/app/models/dto"
)

// Identity is the authenticated actor extracted from the bearer token.
type Identity struct {
	ID   int64
	Name string
	Role models.RoleType
}

// IsAdmin reports whether the actor may act on behalf of other users.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// DashboardFilter narrows the lecturer dashboard query.
type DashboardFilter struct {
	CourseCode  string
	SessionCode string
	Limit       int
}

// AttendanceService covers the session lifecycle and check-in processing.
type AttendanceService interface {
	GenerateSession(ctx context.Context, actor Identity, req dto.GenerateSessionRequest) (*dto.GenerateSessionResponse, error)
	ActiveSession(ctx context.Context, actor Identity) (*dto.ActiveSessionResponse, error)
	CheckIn(ctx context.Context, actor Identity, req dto.CheckInRequest, method models.CheckInMethod) (*dto.CheckInResponse, error)
	ValidateSession(ctx context.Context, code string) (*dto.ValidateSessionResponse, error)
	LecturerDashboard(ctx context.Context, actor Identity, lecturerID int64, filter DashboardFilter) (*dto.DashboardResponse, error)
	Reset(ctx context.Context, actor Identity, req dto.ResetRequest) (*dto.ResetResponse, error)
}

// AuthService handles login and profile lookups.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Profile(ctx context.Context, userID int64) (*dto.UserInfo, error)
}

// NotificationService reads and updates the notification log.
type NotificationService interface {
	List(ctx context.Context, userID int64) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, userID int64, notificationID string) error
}
