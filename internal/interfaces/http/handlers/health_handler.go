package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meridiancap/riskradar/internal/domain/rating"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler exposes liveness information for the service and its
// dependencies, plus the static sector catalog used by clients.
type HealthHandler struct {
	postgres HealthChecker
	redis    HealthChecker
}

func NewHealthHandler(postgres, redis HealthChecker) *HealthHandler {
	return &HealthHandler{postgres: postgres, redis: redis}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK
	deps := gin.H{}

	if err := h.postgres.HealthCheck(ctx); err != nil {
		status = http.StatusServiceUnavailable
		deps["postgres"] = err.Error()
	} else {
		deps["postgres"] = "ok"
	}
	if err := h.redis.HealthCheck(ctx); err != nil {
		status = http.StatusServiceUnavailable
		deps["redis"] = err.Error()
	} else {
		deps["redis"] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "dependencies": deps})
}

// Sectors returns the recommended sector list grouped by expected AI
// disruption exposure.
func (h *HealthHandler) Sectors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sectors":         rating.AllSectors(),
		"classifications": rating.SectorClassifications,
	})
}
