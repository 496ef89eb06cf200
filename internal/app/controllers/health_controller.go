package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// OnlineReporter exposes the database connectivity flag.
type OnlineReporter interface {
	Online() bool
}

// HealthController answers the operational health probe.
type HealthController struct {
	dbHealth OnlineReporter
	redis    *redis.Client
}

// NewHealthController creates a new HealthController. The redis client may be
// nil when no queue backend is configured.
func NewHealthController(dbHealth OnlineReporter, redisClient *redis.Client) *HealthController {
	return &HealthController{dbHealth: dbHealth, redis: redisClient}
}

// Health reports component status. The service keeps serving from fallback
// storage when the database is down, so a degraded response still uses 200.
func (c *HealthController) Health(ctx *gin.Context) {
	status := "ok"

	database := "up"
	if !c.dbHealth.Online() {
		database = "down"
		status = "degraded"
	}

	redisStatus := "disabled"
	if c.redis != nil {
		redisStatus = "up"
		if err := c.redis.Ping(ctx.Request.Context()).Err(); err != nil {
			redisStatus = "down"
			status = "degraded"
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":    status,
		"database":  database,
		"redis":     redisStatus,
		"timestamp": time.Now().UTC(),
	})
}
