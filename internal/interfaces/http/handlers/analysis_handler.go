package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/meridiancap/riskradar/internal/application/analysis"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// AnalysisHandler serves the SSE-streaming analysis endpoints.
type AnalysisHandler struct {
	orchestrator *analysis.Orchestrator
}

// NewAnalysisHandler builds the handler.
func NewAnalysisHandler(orchestrator *analysis.Orchestrator) *AnalysisHandler {
	return &AnalysisHandler{orchestrator: orchestrator}
}

type analyzeRequest struct {
	AssessmentID int64 `json:"assessment_id" binding:"required"`
}

// Analyze runs one analysis, streaming progress as SSE.  Validation
// failures are reported as plain JSON before the stream opens; failures
// after that arrive as error events on the stream itself.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("assessment_id is required"))
		return
	}

	emit := newSSEEmitter(c)
	// Run reports failures through the stream; the return value only
	// matters for logging, which the orchestrator already does.
	_ = h.orchestrator.Run(c.Request.Context(), ownerID(c), req.AssessmentID, emit)
}

type batchAnalyzeRequest struct {
	Companies []string `json:"companies" binding:"required"`
	Sector    *string  `json:"sector"`
}

// AnalyzeBatch runs a sequential multi-company analysis over SSE.
func (h *AnalysisHandler) AnalyzeBatch(c *gin.Context) {
	var req batchAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("companies is required"))
		return
	}

	names := analysis.NormalizeCompanyNames(req.Companies)
	if err := h.orchestrator.ValidateBatch(names); err != nil {
		respondError(c, err)
		return
	}

	emit := newSSEEmitter(c)
	_, _ = h.orchestrator.RunBatch(c.Request.Context(), ownerID(c), names, req.Sector, emit)
}
