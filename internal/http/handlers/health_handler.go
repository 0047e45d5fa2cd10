package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-editor/internal/models"
)

// HealthChecker reports dependency statuses by name: "healthy", "not
// configured" or "unhealthy: <reason>".
type HealthChecker func(ctx context.Context) map[string]string

type HealthHandler struct {
	checkers []HealthChecker
	stats    map[string]StatsProvider
	timeout  time.Duration
}

func NewHealthHandler(timeout time.Duration, checkers ...HealthChecker) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{checkers: checkers, timeout: timeout}
}

// HealthCheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	services := make(map[string]string)
	for _, check := range h.checkers {
		for name, status := range check(ctx) {
			services[name] = status
		}
	}
	report := models.NewHealthReport(services, time.Now())

	statusCode := http.StatusOK
	if report.Status == models.HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: report.Status == models.HealthHealthy,
		Data:    report,
	})
}

// StatsProvider returns a named block of runtime statistics.
type StatsProvider func(ctx context.Context) (map[string]interface{}, error)

// WithStats registers a block for the stats endpoint.
func (h *HealthHandler) WithStats(name string, provider StatsProvider) *HealthHandler {
	if h.stats == nil {
		h.stats = make(map[string]StatsProvider)
	}
	h.stats[name] = provider
	return h
}

func (h *HealthHandler) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	stats := map[string]interface{}{
		"timestamp": time.Now(),
	}
	for name, provider := range h.stats {
		block, err := provider(ctx)
		if err != nil {
			stats[name] = map[string]interface{}{"error": err.Error()}
			continue
		}
		stats[name] = block
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
