package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appportfolio "github.com/meridiancap/riskradar/internal/application/portfolio"
	domain "github.com/meridiancap/riskradar/internal/domain/portfolio"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// PortfolioHandler serves portfolio membership and weight endpoints.
type PortfolioHandler struct {
	svc *appportfolio.Service
}

// NewPortfolioHandler builds the handler.
func NewPortfolioHandler(svc *appportfolio.Service) *PortfolioHandler {
	return &PortfolioHandler{svc: svc}
}

// List returns the caller's portfolio entries.
func (h *PortfolioHandler) List(c *gin.Context) {
	entries, err := h.svc.List(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []*domain.EntryView{}
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": entries})
}

type addRequest struct {
	AssessmentIDs []int64 `json:"assessment_ids" binding:"required"`
}

// Add attaches completed assessments and redistributes weights.
func (h *PortfolioHandler) Add(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("assessment_ids is required"))
		return
	}
	if err := h.svc.Add(c.Request.Context(), ownerID(c), req.AssessmentIDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

// Remove drops one entry and redistributes the remainder.
func (h *PortfolioHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), ownerID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type weightsRequest struct {
	Weights []domain.WeightUpdate `json:"weights" binding:"required"`
}

// UpdateWeights applies a manual weight submission.
func (h *PortfolioHandler) UpdateWeights(c *gin.Context) {
	var req weightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("weights is required"))
		return
	}
	if err := h.svc.UpdateWeights(c.Request.Context(), ownerID(c), req.Weights); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type batchAddRequest struct {
	ExistingAssessmentIDs []int64  `json:"existing_assessment_ids"`
	NewCompanies          []string `json:"new_companies"`
	Sector                *string  `json:"sector"`
}

// BatchAdd streams the combined attach-and-analyze flow over SSE.
func (h *PortfolioHandler) BatchAdd(c *gin.Context) {
	var req batchAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("invalid batch add payload"))
		return
	}

	in := appportfolio.BatchAddInput{
		ExistingAssessmentIDs: req.ExistingAssessmentIDs,
		NewCompanies:          req.NewCompanies,
		Sector:                req.Sector,
	}
	if err := h.svc.ValidateBatchAdd(in); err != nil {
		respondError(c, err)
		return
	}

	emit := newSSEEmitter(c)
	_, _ = h.svc.BatchAdd(c.Request.Context(), ownerID(c), in, emit)
}
