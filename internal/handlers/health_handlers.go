package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything readiness can ping: the pgx pool, the Redis store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	version string
	started time.Time
}

func NewHealthHandlers(db, cache Pinger, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		version: version,
		started: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// HealthCheck is the liveness check
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	})
}

// ReadinessCheck reports whether the database and Redis answer
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	health := &HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}

	checks := map[string]Pinger{"database": h.db, "redis": h.cache}
	for name, p := range checks {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			health.Services[name] = "unhealthy"
			health.Status = "not_ready"
		} else {
			health.Services[name] = "healthy"
		}
	}

	if health.Status != "ready" {
		return c.JSON(http.StatusServiceUnavailable, health)
	}
	return c.JSON(http.StatusOK, health)
}
