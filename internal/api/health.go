package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/realtime"
)

const healthCheckTimeout = 2 * time.Second

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth is the result of one dependency check
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status      string                     `json:"status"`
	Driver      string                     `json:"driver"`
	Checks      map[string]ComponentHealth `json:"checks"`
	Connections int                        `json:"connections"`
	Uptime      string                     `json:"uptime"`
	ServerTime  time.Time                  `json:"server_time"`
}

// HealthHandler reports storage reachability and realtime load
type HealthHandler struct {
	db      *db.DB
	hub     *realtime.Hub
	started time.Time
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(database *db.DB, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{db: database, hub: hub, started: time.Now()}
}

// Check handles GET /api/health. A failed database ping answers 503 so load
// balancers stop routing to this instance.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:      "ok",
		Driver:      h.db.Driver,
		Checks:      map[string]ComponentHealth{},
		Connections: h.hub.ConnectionCount(),
		Uptime:      time.Since(h.started).Round(time.Second).String(),
		ServerTime:  time.Now().UTC(),
	}

	status := http.StatusOK
	if err := h.db.Health(ctx); err != nil {
		response.Status = "degraded"
		response.Checks["database"] = ComponentHealth{Status: statusUnhealthy, Error: err.Error()}
		c.Header("Retry-After", retryAfterSeconds)
		status = http.StatusServiceUnavailable
	} else {
		response.Checks["database"] = ComponentHealth{Status: statusHealthy}
	}

	c.JSON(status, response)
}

// SetupHealthRoutes registers health check routes
func SetupHealthRoutes(apiGroup *gin.RouterGroup, database *db.DB, hub *realtime.Hub) {
	handler := NewHealthHandler(database, hub)
	apiGroup.GET("/health", handler.Check)
}
