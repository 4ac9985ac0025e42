package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appassessment "github.com/meridiancap/riskradar/internal/application/assessment"
	domain "github.com/meridiancap/riskradar/internal/domain/assessment"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// AssessmentHandler serves the assessment CRUD, override, and export
// endpoints.
type AssessmentHandler struct {
	svc *appassessment.Service
}

// NewAssessmentHandler builds the handler.
func NewAssessmentHandler(svc *appassessment.Service) *AssessmentHandler {
	return &AssessmentHandler{svc: svc}
}

type createAssessmentRequest struct {
	CompanyName string  `json:"company_name" binding:"required"`
	Sector      *string `json:"sector"`
	Description *string `json:"description"`
}

// Create registers a company (lazily) and a pending assessment.
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req createAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("company_name is required"))
		return
	}

	out, err := h.svc.Create(c.Request.Context(), ownerID(c), appassessment.CreateInput{
		CompanyName: req.CompanyName,
		Sector:      req.Sector,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// List returns the caller's assessments with optional filters.
func (h *AssessmentHandler) List(c *gin.Context) {
	filter := domain.ListFilter{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
	}
	if v := c.Query("status"); v != "" {
		status := domain.Status(v)
		filter.Status = &status
	}
	if v := c.Query("sector"); v != "" {
		filter.Sector = &v
	}

	list, err := h.svc.List(c.Request.Context(), ownerID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []*domain.Assessment{}
	}
	c.JSON(http.StatusOK, gin.H{"assessments": list})
}

// Get returns one assessment with scores and history.
func (h *AssessmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type overrideRequest struct {
	UserRating    *string `json:"user_rating"`
	UserReasoning *string `json:"user_reasoning"`
}

// OverrideScore applies or clears a sub-question override.
func (h *AssessmentHandler) OverrideScore(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	scoreID, ok := pathID(c, "scoreId")
	if !ok {
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("invalid override payload"))
		return
	}

	in := appassessment.OverrideInput{UserReasoning: req.UserReasoning}
	if req.UserRating != nil {
		r := rating.Rating(*req.UserRating)
		in.UserRating = &r
	}

	out, err := h.svc.Override(c.Request.Context(), ownerID(c), id, scoreID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

// UpdateNotes replaces the free-text notes.
func (h *AssessmentHandler) UpdateNotes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("invalid notes payload"))
		return
	}
	if err := h.svc.UpdateNotes(c.Request.Context(), ownerID(c), id, req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes an owned assessment.
func (h *AssessmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), ownerID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export renders the printable HTML report for a completed assessment.
func (h *AssessmentHandler) Export(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.svc.ExportHTML(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="assessment-`+strconv.FormatInt(id, 10)+`.html"`)
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}
