package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/roomassign/internal/handler"
	"github.com/limaJavier/roomassign/internal/repository"
	"github.com/limaJavier/roomassign/internal/service"
	"github.com/limaJavier/roomassign/pkg/cache"
	"github.com/limaJavier/roomassign/pkg/config"
	"github.com/limaJavier/roomassign/pkg/database"
	"github.com/limaJavier/roomassign/pkg/forecast"
	"github.com/limaJavier/roomassign/pkg/logger"
	"github.com/limaJavier/roomassign/pkg/model"
	"github.com/limaJavier/roomassign/pkg/sat"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, sensor cache disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	metrics := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metrics, cfg.Forecast.SensorCacheTTL, logr, redisClient != nil)

	rooms := repository.NewRoomRepository(db)
	lessons := repository.NewLessonRepository(db)
	sensors := service.NewSensorService(repository.NewSensorRepository(db), cacheService, cfg.Forecast.SensorCacheTTL)

	predictor := forecast.NewPredictor(forecast.NewFileLoader(cfg.Forecast.ModelPath), sensors, forecast.Options{
		Logger:     logr.Named("forecast"),
		OnFallback: metrics.RecordPredictionFallback,
	})

	solver, err := newSolver(cfg.Optimizer)
	if err != nil {
		logr.Fatal("invalid optimizer configuration", zap.Error(err))
	}
	optimizer := model.NewOptimizer(solver, model.Options{
		Predictor: predictor,
		Logger:    logr.Named("optimizer"),
		Horizon:   cfg.Optimizer.Horizon,
	})

	optimizationService := service.NewOptimizationService(lessons, rooms, optimizer, predictor, sensors, metrics, nil, logr, service.OptimizationConfig{})

	checks := []handler.HealthCheck{
		{Name: "database", Critical: true, Check: func(ctx context.Context) error { return database.Ping(ctx, db) }},
		{Name: "forecast_model", Check: func(ctx context.Context) error {
			_, err := predictor.Model(ctx)
			return err
		}},
		{Name: "sensor_cache"},
	}
	if redisClient != nil {
		checks[2].Check = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	r := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Solver:         cfg.Optimizer.Solver,
		HealthChecks:   checks,
	}, logr, metrics, handler.NewOptimizationHandler(optimizationService))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "solver", cfg.Optimizer.Solver)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func newSolver(cfg config.OptimizerConfig) (sat.Solver, error) {
	switch cfg.Solver {
	case config.SolverGophersat:
		return sat.NewGophersatSolver(cfg.TimeLimit), nil
	case config.SolverOPB:
		if cfg.SolverPath == "" {
			return nil, fmt.Errorf("solver %q requires OPTIMIZER_SOLVER_PATH", cfg.Solver)
		}
		return sat.NewOPBSolver(cfg.SolverPath, cfg.TimeLimit, cfg.SolverArgs...), nil
	default:
		return nil, fmt.Errorf("unknown solver %q", cfg.Solver)
	}
}
