package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ekene/classpulse/internal/app/models/dto"
	"github.com/ekene/classpulse/internal/pkg/apperrors"
)

// HandleAPIError translates service errors into the standard failure envelope.
// Known sentinels map to stable codes; anything unrecognized becomes a 500
// with a generic message so internals never leak to clients.
func HandleAPIError(c *gin.Context, err error) {
	details := apperrors.Details(err)

	switch {
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		resp := dto.NewErrorResponse(dto.ErrorCodeValidationFailed, err.Error())
		if field, ok := details["field"].(string); ok {
			resp.WithField(field)
		}
		c.JSON(http.StatusBadRequest, resp)

	case errors.Is(err, apperrors.ErrActiveSessionExists):
		resp := dto.NewErrorResponse(dto.ErrorCodeSessionConflict, err.Error())
		info := &dto.ActiveSessionInfo{}
		if code, ok := details["sessionCode"].(string); ok {
			info.SessionCode = code
		}
		if remaining, ok := details["remainingSeconds"].(int); ok {
			info.RemainingSeconds = remaining
		}
		if expires, ok := details["expiresAt"].(time.Time); ok {
			info.ExpiresAt = expires
		}
		c.JSON(http.StatusBadRequest, resp.WithActiveSession(info))

	case errors.Is(err, apperrors.ErrSessionExpired):
		resp := dto.NewErrorResponse(dto.ErrorCodeSessionExpired, err.Error())
		if expires, ok := details["expiresAt"].(time.Time); ok {
			resp.WithExpiresAt(expires)
		}
		c.JSON(http.StatusBadRequest, resp)

	case errors.Is(err, apperrors.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrorCodeSessionNotFound, err.Error()))

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrorCodeInvalidCredentials, err.Error()))

	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrorCodeExpiredToken, "Token expired"))

	case errors.Is(err, apperrors.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrorCodeInvalidToken, "Invalid token"))

	case errors.Is(err, apperrors.ErrAccountDisabled), errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(dto.ErrorCodeForbidden, err.Error()))

	case errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrNotificationNotFound),
		errors.Is(err, apperrors.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrorCodeResourceNotFound, err.Error()))

	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrorCodeInternalServer, "Internal server error"))
	}
}
