package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appnews "github.com/meridiancap/riskradar/internal/application/news"
	domain "github.com/meridiancap/riskradar/internal/domain/news"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// NewsHandler serves the competitive-news alert endpoints.
type NewsHandler struct {
	scanner *appnews.Scanner
}

// NewNewsHandler builds the handler.
func NewNewsHandler(scanner *appnews.Scanner) *NewsHandler {
	return &NewsHandler{scanner: scanner}
}

// List returns the caller's stored alerts at or above the relevance floor.
func (h *NewsHandler) List(c *gin.Context) {
	var minRelevance *int
	if v := c.Query("min_relevance"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, errors.Validation("min_relevance must be a number"))
			return
		}
		minRelevance = &n
	}

	alerts, err := h.scanner.Alerts(c.Request.Context(), ownerID(c), minRelevance)
	if err != nil {
		respondError(c, err)
		return
	}
	if alerts == nil {
		alerts = []*domain.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// Status returns the caller's scan freshness summary.
func (h *NewsHandler) Status(c *gin.Context) {
	status, err := h.scanner.Status(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Scan runs an incremental news scan over SSE.
func (h *NewsHandler) Scan(c *gin.Context) {
	emit := newSSEEmitter(c)
	_, _ = h.scanner.Scan(c.Request.Context(), ownerID(c), emit)
}
