package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	internalmiddleware "github.com/limaJavier/roomassign/internal/middleware"
	"github.com/limaJavier/roomassign/internal/service"
	"github.com/limaJavier/roomassign/pkg/logger"
	corsmiddleware "github.com/limaJavier/roomassign/pkg/middleware/cors"
	reqidmiddleware "github.com/limaJavier/roomassign/pkg/middleware/requestid"
)

type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	Solver         string
	HealthChecks   []HealthCheck
}

// NewRouter mounts the optimization API under the prefix and the health and metrics endpoints at the root.
func NewRouter(cfg RouterConfig, logr *zap.Logger, metrics *service.MetricsService, optimization *OptimizationHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := NewMetricsHandler(metrics, cfg.Solver, cfg.HealthChecks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	optimize := api.Group("/optimize")
	optimize.POST("", optimization.Bundle)
	optimize.POST("/weekly-planning", optimization.WeeklyPlanning)
	optimize.POST("/week", optimization.Week)

	api.GET("/predict/room/:id", optimization.PredictRoom)

	return r
}
