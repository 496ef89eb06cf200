package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/app/models/dto"
	"github.com/ekene/classpulse/internal/app/services"
	"github.com/ekene/classpulse/internal/middleware"
)

// AttendanceController handles session lifecycle and check-in endpoints.
type AttendanceController struct {
	attendanceService services.AttendanceService
	logger            zerolog.Logger
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService services.AttendanceService, logger zerolog.Logger) *AttendanceController {
	return &AttendanceController{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

// GenerateSession issues a fresh attendance session with its QR code.
func (c *AttendanceController) GenerateSession(ctx *gin.Context) {
	var req dto.GenerateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid generate-session payload")
		ctx.JSON(http.StatusBadRequest,
			dto.NewErrorResponse(dto.ErrorCodeValidationFailed, "courseCode and courseName are required"))
		return
	}

	resp, err := c.attendanceService.GenerateSession(ctx.Request.Context(), currentIdentity(ctx), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, resp)
}

// ActiveSession answers the lecturer's dashboard poll.
func (c *AttendanceController) ActiveSession(ctx *gin.Context) {
	resp, err := c.attendanceService.ActiveSession(ctx.Request.Context(), currentIdentity(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CheckIn records a QR-scan check-in.
func (c *AttendanceController) CheckIn(ctx *gin.Context) {
	var req dto.CheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid check-in payload")
		ctx.JSON(http.StatusBadRequest,
			dto.NewErrorResponse(dto.ErrorCodeValidationFailed, "Invalid request body"))
		return
	}

	method := models.MethodQRScan
	if req.QRCode == "" {
		method = models.MethodManualCode
	}

	resp, err := c.attendanceService.CheckIn(ctx.Request.Context(), currentIdentity(ctx), req, method)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// Mark records a manual-code check-in.
func (c *AttendanceController) Mark(ctx *gin.Context) {
	var req dto.MarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid mark payload")
		ctx.JSON(http.StatusBadRequest,
			dto.NewErrorResponse(dto.ErrorCodeValidationFailed, "sessionCode is required"))
		return
	}

	checkIn := dto.CheckInRequest{SessionCode: req.SessionCode, StudentID: req.StudentID}
	resp, err := c.attendanceService.CheckIn(ctx.Request.Context(), currentIdentity(ctx), checkIn, models.MethodManualCode)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// ValidateSession answers the public code-validity probe.
func (c *AttendanceController) ValidateSession(ctx *gin.Context) {
	resp, err := c.attendanceService.ValidateSession(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Dashboard returns a lecturer's attendance records and stats.
func (c *AttendanceController) Dashboard(ctx *gin.Context) {
	identity := currentIdentity(ctx)

	lecturerID := identity.ID
	if raw := ctx.Param("lecturerId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrorCodeValidationFailed, "lecturerId must be numeric").WithField("lecturerId"))
			return
		}
		lecturerID = parsed
	}

	filter := services.DashboardFilter{
		CourseCode:  ctx.Query("courseCode"),
		SessionCode: ctx.Query("sessionCode"),
	}
	if raw := ctx.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	resp, err := c.attendanceService.LecturerDashboard(ctx.Request.Context(), identity, lecturerID, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// Reset deletes the caller's sessions and check-in logs.
func (c *AttendanceController) Reset(ctx *gin.Context) {
	var req dto.ResetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid reset payload")
		ctx.JSON(http.StatusBadRequest,
			dto.NewErrorResponse(dto.ErrorCodeValidationFailed, "Invalid request body"))
		return
	}

	resp, err := c.attendanceService.Reset(ctx.Request.Context(), currentIdentity(ctx), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
