package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/pkg/circuit"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/ahlanjobb/api/pkg/metrics"
	"github.com/ahlanjobb/api/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QueueInspector reports email queue list lengths.
type QueueInspector interface {
	Depth(ctx context.Context) (pending, processing, dead int64, err error)
}

type HealthHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	queue       QueueInspector
	breaker     *circuit.Breaker
	now         func() time.Time
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// NewHealthHandler accepts nil for redisClient, queue and breaker when the
// matching component is not running.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, queue QueueInspector, breaker *circuit.Breaker) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		queue:       queue,
		breaker:     breaker,
		now:         time.Now,
	}
}

// HealthCheck performs comprehensive health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthCheckResponse{
		Status:    "healthy",
		Version:   constants.AppVersion,
		Timestamp: h.now(),
		Checks:    make(map[string]HealthCheck),
	}

	dbStatus := h.checkDatabase(ctx)
	response.Checks["database"] = dbStatus
	if dbStatus.Status != "healthy" {
		response.Status = "unhealthy"
	}

	// Redis, the queue and SMTP degrade email delivery but not the API.
	response.Checks["redis"] = h.checkRedis(ctx)
	response.Checks["email_queue"] = h.checkQueue(ctx)
	response.Checks["smtp"] = h.checkBreaker()

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", response.Status),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, response)
}

// BasicHealth returns a simple health check (for load balancers)
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   constants.AppVersion,
		"timestamp": h.now(),
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	if h.db == nil {
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Database connection not initialized",
		}
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		logger.GetLogger().Error("Failed to get DB instance for health check", zap.Error(err))
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Failed to get database instance",
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.GetLogger().Error("Database ping failed", zap.Error(err))
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Database ping failed",
		}
	}

	stats := sqlDB.Stats()
	return HealthCheck{
		Status:  "healthy",
		Message: fmt.Sprintf("Database connection is healthy (open: %d, idle: %d)", stats.OpenConnections, stats.Idle),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) HealthCheck {
	if h.redisClient == nil {
		return HealthCheck{
			Status:  "disabled",
			Message: "Redis is disabled, emails are sent inline",
		}
	}

	if err := h.redisClient.Ping(ctx); err != nil {
		logger.GetLogger().Warn("Redis ping failed", zap.Error(err))
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Redis ping failed",
		}
	}

	return HealthCheck{
		Status:  "healthy",
		Message: "Redis connection is healthy",
		Details: h.redisClient.Stats(),
	}
}

func (h *HealthHandler) checkQueue(ctx context.Context) HealthCheck {
	if h.queue == nil {
		return HealthCheck{Status: "disabled"}
	}

	pending, processing, dead, err := h.queue.Depth(ctx)
	if err != nil {
		logger.GetLogger().Warn("Queue depth check failed", zap.Error(err))
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Could not read queue depth",
		}
	}

	metrics.EmailQueueDepth.WithLabelValues("pending").Set(float64(pending))
	metrics.EmailQueueDepth.WithLabelValues("processing").Set(float64(processing))
	metrics.EmailQueueDepth.WithLabelValues("dead").Set(float64(dead))

	return HealthCheck{
		Status: "healthy",
		Details: map[string]any{
			"pending":    pending,
			"processing": processing,
			"dead":       dead,
		},
	}
}

func (h *HealthHandler) checkBreaker() HealthCheck {
	if h.breaker == nil {
		return HealthCheck{Status: "disabled"}
	}

	status := "healthy"
	if h.breaker.State() != circuit.StateClosed {
		status = "degraded"
	}
	return HealthCheck{
		Status:  status,
		Details: h.breaker.Stats(),
	}
}
