package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"vinyldex/internal/metrics"
)

// HealthStatus represents the overall health status response
type HealthStatus struct {
	Status string                 `json:"status"`
	DB     DependencyHealthStatus `json:"db"`
	Redis  DependencyHealthStatus `json:"redis"`
}

// DependencyHealthStatus represents the health status of a dependency
type DependencyHealthStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewHealthHandler creates a new health handler. redisClient may be nil when
// Redis is not configured.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
	}
}

// HealthCheck handles the health check endpoint at /healthz
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	var healthStatus HealthStatus

	healthStatus.DB = h.checkDBHealth()
	healthStatus.Redis = h.checkRedisHealth(c)

	switch {
	case healthStatus.DB.Status == "error":
		healthStatus.Status = "error"
	case healthStatus.DB.Status == "degraded" || healthStatus.Redis.Status == "degraded":
		healthStatus.Status = "degraded"
	default:
		healthStatus.Status = "ok"
	}

	reportHealthMetric("db", healthStatus.DB.Status)
	reportHealthMetric("redis", healthStatus.Redis.Status)

	httpStatus := http.StatusOK
	if healthStatus.Status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.Set("Cache-Control", "no-store")
	return c.Status(httpStatus).JSON(healthStatus)
}

func (h *HealthHandler) checkDBHealth() DependencyHealthStatus {
	start := time.Now()

	var result int
	err := h.db.Raw("SELECT 1").Scan(&result).Error

	latency := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealthStatus{
			Status:    "error",
			LatencyMs: latency,
			Message:   err.Error(),
		}
	}

	if latency > 200 {
		return DependencyHealthStatus{
			Status:    "degraded",
			LatencyMs: latency,
			Message:   "Database response time is above threshold",
		}
	}

	return DependencyHealthStatus{
		Status:    "ok",
		LatencyMs: latency,
	}
}

// checkRedisHealth pings Redis. Losing Redis only degrades the service: the
// lookup cache and job queue stop, the collection API keeps working.
func (h *HealthHandler) checkRedisHealth(c *fiber.Ctx) DependencyHealthStatus {
	if h.redisClient == nil {
		return DependencyHealthStatus{
			Status:  "ok",
			Message: "Redis not configured",
		}
	}

	start := time.Now()
	err := h.redisClient.Ping(c.Context()).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealthStatus{
			Status:    "degraded",
			LatencyMs: latency,
			Message:   err.Error(),
		}
	}

	return DependencyHealthStatus{
		Status:    "ok",
		LatencyMs: latency,
	}
}

func reportHealthMetric(dependency, status string) {
	value := 0.0
	if status == "ok" {
		value = 1.0
	}
	metrics.HealthStatus.WithLabelValues(dependency).Set(value)
}
