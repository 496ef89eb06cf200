// Package controllers handles HTTP request handling
package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/app/services"
	"github.com/ekene/classpulse/internal/middleware"
)

// currentIdentity reads the authenticated caller from the request context.
// Routes without JWTAuth yield a zero Identity, which the services treat as
// an anonymous caller.
func currentIdentity(c *gin.Context) services.Identity {
	var identity services.Identity
	if v, ok := c.Get(middleware.CtxUserID); ok {
		if id, ok := v.(int64); ok {
			identity.ID = id
		}
	}
	if v, ok := c.Get(middleware.CtxUserName); ok {
		if name, ok := v.(string); ok {
			identity.Name = name
		}
	}
	if v, ok := c.Get(middleware.CtxUserRole); ok {
		if role, ok := v.(string); ok {
			identity.Role = models.RoleType(role)
		}
	}
	return identity
}
