package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/roomassign/internal/service"
)

const healthTimeout = 2 * time.Second

// HealthCheck tests one dependency of the optimizer. A nil Check reports the dependency as disabled.
type HealthCheck struct {
	Name     string
	Critical bool // Failing turns the service unhealthy instead of degraded
	Check    func(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	solver  string
	checks  []HealthCheck
}

func NewMetricsHandler(metrics *service.MetricsService, solver string, checks []HealthCheck) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, solver: solver, checks: checks}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports the solver backend and the state of the database, forecast model and sensor cache.
// Only a failing critical dependency answers 503; the optimizer still runs on default temperatures without the rest.
func (h *MetricsHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status, code := "healthy", http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		switch {
		case check.Check == nil:
			checks[check.Name] = "disabled"
		case check.Check(ctx) != nil:
			checks[check.Name] = "down"
			if check.Critical {
				status, code = "unhealthy", http.StatusServiceUnavailable
			} else if status == "healthy" {
				status = "degraded"
			}
		default:
			checks[check.Name] = "up"
		}
	}

	c.JSON(code, gin.H{"status": status, "solver": h.solver, "checks": checks})
}
