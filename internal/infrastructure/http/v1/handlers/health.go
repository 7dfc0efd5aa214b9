package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DatabaseProbe is implemented by both storage backends.
type DatabaseProbe interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	backend string
	db      DatabaseProbe
	stats   func() any
}

// NewHealthHandler creates a new health handler. stats may be nil.
func NewHealthHandler(backend string, db DatabaseProbe, stats func() any) *HealthHandler {
	return &HealthHandler{backend: backend, db: db, stats: stats}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     "txprop",
		"version": "0.1.0",
		"backend": h.backend,
	}
	if h.stats != nil {
		body["pool"] = h.stats()
	}
	c.JSON(http.StatusOK, body)
}
