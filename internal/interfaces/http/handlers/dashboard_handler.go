package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meridiancap/riskradar/internal/application/dashboard"
)

// DashboardHandler serves portfolio-level aggregate views.
type DashboardHandler struct {
	svc *dashboard.Service
}

func NewDashboardHandler(svc *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) RiskDistribution(c *gin.Context) {
	buckets, err := h.svc.RiskDistribution(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if buckets == nil {
		buckets = []dashboard.RiskBucket{}
	}
	c.JSON(http.StatusOK, gin.H{"distribution": buckets})
}

func (h *DashboardHandler) DomainBreakdown(c *gin.Context) {
	entries, err := h.svc.DomainBreakdown(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []dashboard.DomainBreakdownEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"domains": entries})
}

func (h *DashboardHandler) SectorBreakdown(c *gin.Context) {
	sectors, err := h.svc.SectorBreakdown(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if sectors == nil {
		sectors = []dashboard.SectorStat{}
	}
	c.JSON(http.StatusOK, gin.H{"sectors": sectors})
}
