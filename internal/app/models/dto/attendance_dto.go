package dto

import (
	"time"

	"github.com/ekene/classpulse/internal/app/models"
)

// GenerateSessionRequest starts a new attendance session for the caller.
// Lecturer is optional; when empty the authenticated name is used.
type GenerateSessionRequest struct {
	CourseCode      string `json:"courseCode" binding:"required"`
	CourseName      string `json:"courseName" binding:"required"`
	Lecturer        string `json:"lecturer"`
	DurationMinutes int    `json:"durationMinutes"`
}

// CheckInRequest submits a QR or manual-code check-in. QRCode carries the JSON
// payload text extracted from a scanned image; SessionCode is the typed
// alternative. StudentID is a fallback for tokens without a bound id.
type CheckInRequest struct {
	StudentID   int64      `json:"studentId"`
	QRCode      string     `json:"qrCode"`
	SessionCode string     `json:"sessionCode"`
	Timestamp   *time.Time `json:"timestamp"`
}

// MarkRequest is the manual-code check-in variant.
type MarkRequest struct {
	SessionCode string `json:"sessionCode" binding:"required"`
	StudentID   int64  `json:"studentId"`
}

// ResetRequest wipes the caller's sessions and logs. Nothing is deleted
// unless ConfirmReset is explicitly true.
type ResetRequest struct {
	SessionCode  string `json:"sessionCode"`
	CourseCode   string `json:"courseCode"`
	ConfirmReset bool   `json:"confirmReset"`
}

// SessionInfo is the wire form of an attendance session.
type SessionInfo struct {
	SessionCode      string    `json:"sessionCode"`
	CourseCode       string    `json:"courseCode"`
	CourseName       string    `json:"courseName"`
	Lecturer         string    `json:"lecturer"`
	LecturerID       *int64    `json:"lecturerId,omitempty"`
	IssuedAt         time.Time `json:"issuedAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RemainingSeconds int       `json:"remainingSeconds"`
}

// NewSessionInfo converts a session model relative to the given instant.
func NewSessionInfo(s *models.AttendanceSession, now time.Time) *SessionInfo {
	if s == nil {
		return nil
	}
	return &SessionInfo{
		SessionCode:      s.SessionCode,
		CourseCode:       s.CourseCode,
		CourseName:       s.CourseName,
		Lecturer:         s.Lecturer,
		LecturerID:       s.LecturerID,
		IssuedAt:         s.IssuedAt,
		ExpiresAt:        s.ExpiresAt,
		RemainingSeconds: s.RemainingSeconds(now),
	}
}

// QRCodeInfo carries the rendered QR image.
type QRCodeInfo struct {
	DataURL string `json:"dataUrl"`
}

// GenerateSessionResponse is returned on successful session issuance.
type GenerateSessionResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Session *SessionInfo `json:"session"`
	QRCode  *QRCodeInfo  `json:"qrCode"`
}

// ActiveSessionResponse answers the dashboard poll.
type ActiveSessionResponse struct {
	Success          bool         `json:"success"`
	HasActiveSession bool         `json:"hasActiveSession"`
	Session          *SessionInfo `json:"session,omitempty"`
}

// SessionSnapshot is the course/lecturer context echoed with a check-in.
type SessionSnapshot struct {
	CourseCode string `json:"courseCode"`
	CourseName string `json:"courseName"`
	Lecturer   string `json:"lecturer"`
}

// CheckInResponse is returned for both fresh and repeated check-ins; repeats
// set AlreadyCheckedIn and carry the original log entry untouched.
type CheckInResponse struct {
	Success          bool               `json:"success"`
	Message          string             `json:"message"`
	AlreadyCheckedIn bool               `json:"alreadyCheckedIn,omitempty"`
	Log              *models.CheckInLog `json:"log"`
	Session          *SessionSnapshot   `json:"session"`
}

// SessionStatusInfo is the public validation view of a session.
type SessionStatusInfo struct {
	SessionCode      string    `json:"sessionCode"`
	CourseCode       string    `json:"courseCode"`
	CourseName       string    `json:"courseName"`
	Lecturer         string    `json:"lecturer"`
	IssuedAt         time.Time `json:"issuedAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	IsExpired        bool      `json:"isExpired"`
	RemainingSeconds int       `json:"remainingSeconds"`
}

// ValidateSessionResponse answers the public code-validation endpoint.
type ValidateSessionResponse struct {
	Success bool               `json:"success"`
	Valid   bool               `json:"valid"`
	Session *SessionStatusInfo `json:"session,omitempty"`
}

// LecturerInfo identifies the dashboard owner.
type LecturerInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DashboardStats aggregates a lecturer's attendance activity.
type DashboardStats struct {
	TotalCheckIns  int `json:"totalCheckIns"`
	UniqueStudents int `json:"uniqueStudents"`
	SessionsHeld   int `json:"sessionsHeld"`
}

// DashboardResponse is the lecturer dashboard aggregate.
type DashboardResponse struct {
	Success        bool                 `json:"success"`
	Lecturer       LecturerInfo         `json:"lecturer"`
	CurrentSession *SessionInfo         `json:"currentSession,omitempty"`
	Records        []*models.CheckInLog `json:"records"`
	RecentSessions []*SessionInfo       `json:"recentSessions"`
	Stats          DashboardStats       `json:"stats"`
}

// DeletedCounts reports what a reset removed.
type DeletedCounts struct {
	Sessions int64 `json:"sessions"`
	Logs     int64 `json:"logs"`
}

// ResetResponse confirms a reset.
type ResetResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Deleted DeletedCounts `json:"deleted"`
}
