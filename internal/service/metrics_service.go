package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation of the HTTP surface, the sensor cache and the optimizer.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	cacheLatency         prometheus.Observer
	cacheWrite           prometheus.Observer
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	optimizationDuration *prometheus.HistogramVec
	optimizationTotal    *prometheus.CounterVec
	assignedLessons      prometheus.Counter
	predictionFallbacks  *prometheus.CounterVec
}

func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sensor_cache_latency_seconds",
		Help:    "Latency for sensor cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sensor_cache_write_seconds",
		Help:    "Latency for sensor cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensor_cache_hits_total",
		Help: "Total sensor cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensor_cache_misses_total",
		Help: "Total sensor cache misses",
	})

	optimizationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "room_optimization_duration_seconds",
		Help:    "Duration of room optimizations including temperature prediction",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status"})

	optimizationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_optimizations_total",
		Help: "Total room optimizations by resulting status",
	}, []string{"status"})

	assignedLessons := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "room_assigned_lessons_total",
		Help: "Total lessons assigned to a room by successful optimizations",
	})

	predictionFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "temperature_prediction_fallbacks_total",
		Help: "Total temperature predictions replaced by the default temperature",
	}, []string{"reason"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHits, cacheMisses,
		optimizationDuration, optimizationTotal, assignedLessons, predictionFallbacks,
		goroutines,
	)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		cacheLatency:         cacheLatency,
		cacheWrite:           cacheWrite,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		optimizationDuration: optimizationDuration,
		optimizationTotal:    optimizationTotal,
		assignedLessons:      assignedLessons,
		predictionFallbacks:  predictionFallbacks,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveOptimization records one optimizer run and the number of lessons it placed.
func (m *MetricsService) ObserveOptimization(status string, assigned int, duration time.Duration) {
	if m == nil {
		return
	}
	m.optimizationDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.optimizationTotal.WithLabelValues(status).Inc()
	m.assignedLessons.Add(float64(assigned))
}

// RecordPredictionFallback matches the forecast.Options OnFallback hook.
func (m *MetricsService) RecordPredictionFallback(reason string) {
	if m == nil {
		return
	}
	m.predictionFallbacks.WithLabelValues(reason).Inc()
}
