package dto

import (
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

// Standard error codes for the application
const (
	// Authentication errors
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_002"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_003"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_004"
	ErrorCodeForbidden          ErrorCode = "AUTH_005"

	// Attendance errors
	ErrorCodeSessionNotFound ErrorCode = "ATT_001"
	ErrorCodeSessionExpired  ErrorCode = "ATT_002"
	ErrorCodeSessionConflict ErrorCode = "ATT_003"

	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VAL_001"

	// Resource errors
	ErrorCodeResourceNotFound ErrorCode = "RES_001"

	// Server errors
	ErrorCodeInternalServer ErrorCode = "SRV_001"
)

// ErrorResponse is the standard failure envelope. Clients branch on the
// success flag, not the HTTP status; the extra fields give them enough to
// explain the failure (expiry instant, existing-session countdown, field name).
type ErrorResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	Code          ErrorCode          `json:"code,omitempty"`
	Field         string             `json:"field,omitempty"`
	ExpiresAt     *time.Time         `json:"expiresAt,omitempty"`
	ActiveSession *ActiveSessionInfo `json:"activeSession,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
}

// ActiveSessionInfo describes the session blocking a generate call.
type ActiveSessionInfo struct {
	SessionCode      string    `json:"sessionCode"`
	RemainingSeconds int       `json:"remainingSeconds"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// WithField names the request field that failed validation
func (e *ErrorResponse) WithField(field string) *ErrorResponse {
	e.Field = field
	return e
}

// WithExpiresAt attaches the expiry instant for expired-session failures
func (e *ErrorResponse) WithExpiresAt(t time.Time) *ErrorResponse {
	e.ExpiresAt = &t
	return e
}

// WithActiveSession attaches the blocking session for conflict failures
func (e *ErrorResponse) WithActiveSession(info *ActiveSessionInfo) *ErrorResponse {
	e.ActiveSession = info
	return e
}
