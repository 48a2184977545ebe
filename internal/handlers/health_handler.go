package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/clinic-service/internal/cache"
	"github.com/SAP-F-2025/clinic-service/internal/utils"
)

const (
	checkOK       = "ok"
	checkDown     = "down"
	checkDisabled = "disabled"
)

// HealthChecker is satisfied by services.ServiceManager
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	BaseHandler
	db    HealthChecker
	cache HealthChecker
}

// NewHealthHandler accepts a nil redis client when caching is off
func NewHealthHandler(db HealthChecker, redisClient *redis.Client, logger utils.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: NewBaseHandler(logger),
		db:          db,
		cache:       cache.NewCacheManager(redisClient),
	}
}

// Health reports database and cache reachability
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"database": checkOK, "cache": checkDisabled}

	if err := h.db.HealthCheck(ctx); err != nil {
		h.LogError(c, err, "Database health check failed")
		checks["database"] = checkDown
		status = http.StatusServiceUnavailable
	}

	// a dead cache degrades reads but does not fail the check
	switch err := h.cache.HealthCheck(ctx); {
	case err == nil:
		checks["cache"] = checkOK
	case errors.Is(err, cache.ErrCacheNotAvailable):
	default:
		utils.GetLogger(c, h.logger).Warn("Cache health check failed", "error", err)
		checks["cache"] = checkDown
	}

	body := gin.H{
		"status":    "OK",
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}
	if status != http.StatusOK {
		body["status"] = "ERROR"
		body["message"] = "Database unavailable"
	}

	c.JSON(status, body)
}
