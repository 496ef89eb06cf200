package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ekene/classpulse/internal/app/models/dto"
	"github.com/ekene/classpulse/internal/app/services"
	"github.com/ekene/classpulse/internal/middleware"
)

// NotificationController handles the notification inbox endpoints.
type NotificationController struct {
	notificationService services.NotificationService
	logger              zerolog.Logger
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService services.NotificationService, logger zerolog.Logger) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		logger:              logger,
	}
}

// List returns the caller's notifications, newest first.
func (c *NotificationController) List(ctx *gin.Context) {
	identity := currentIdentity(ctx)

	resp, err := c.notificationService.List(ctx.Request.Context(), identity.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// MarkRead flags one of the caller's notifications as read.
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	identity := currentIdentity(ctx)

	if err := c.notificationService.MarkRead(ctx.Request.Context(), identity.ID, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.MarkReadResponse{Success: true, Message: "Notification marked as read"})
}
