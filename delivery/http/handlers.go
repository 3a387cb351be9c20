package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/usecase"
)

// PostureHandlers adapts the four engine operations to HTTP.
type PostureHandlers struct {
	service *usecase.PostureService
	logger  *zap.Logger
}

// NewPostureHandlers creates the handler set.
func NewPostureHandlers(service *usecase.PostureService, logger *zap.Logger) *PostureHandlers {
	return &PostureHandlers{service: service, logger: logger}
}

// ComputeRiskScore handles POST /api/v1/risk-score.
func (h *PostureHandlers) ComputeRiskScore(c *gin.Context) {
	var req ComputeRiskScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	score, err := h.service.ComputeRiskScore(entity.Rating(req.Likelihood), entity.Rating(req.Impact), req.Preset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ComputeRiskScoreResponse{Score: score.Score, Level: string(score.Level)})
}

// ComputeStatistics handles GET /api/v1/statistics/:kind/:id.
func (h *PostureHandlers) ComputeStatistics(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed subject id"})
		return
	}

	stats, err := h.service.ComputeStatistics(c.Request.Context(), subjectID, usecase.SubjectKind(c.Param("kind")))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ApplyControlStatus handles PUT /api/v1/assessments/:id/controls/:controlId/status.
func (h *PostureHandlers) ApplyControlStatus(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed assessment id"})
		return
	}
	controlID, err := uuid.Parse(c.Param("controlId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed control id"})
		return
	}

	var req ApplyControlStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	result, err := h.service.ApplyControlStatus(c.Request.Context(), usecase.ApplyControlStatusInput{
		AssessmentID:    assessmentID,
		ControlID:       controlID,
		Status:          entity.ImplementationStatus(req.Status),
		MaturityLevel:   req.MaturityLevel,
		ComplianceScore: req.ComplianceScore,
		Notes:           req.Notes,
		Recommendations: req.Recommendations,
		AssessedBy:      req.AssessedBy,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ApplyControlStatusResponse{
		Entry:             result.Entry,
		CreatedEntryID:    result.Outcome.CreatedEntryID,
		CompletedEntryIDs: result.Outcome.CompletedEntryIDs,
	})
}

// UpdateRegisterEntry handles PATCH /api/v1/register-entries/:id.
func (h *PostureHandlers) UpdateRegisterEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed entry id"})
		return
	}

	var req UpdateRegisterEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	entry, err := h.service.UpdateRegisterEntry(c.Request.Context(), id, req.ToUpdate())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeleteRegisterEntry handles DELETE /api/v1/register-entries/:id.
func (h *PostureHandlers) DeleteRegisterEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed entry id"})
		return
	}

	if err := h.service.DeleteRegisterEntry(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateThreat handles PATCH /api/v1/threats/:id.
func (h *PostureHandlers) UpdateThreat(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed threat id"})
		return
	}

	var req UpdateThreatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	threat, err := h.service.UpdateThreat(c.Request.Context(), id, req.ToUpdate())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, threat)
}

// SetMitigationStatus handles PUT /api/v1/threats/:id/mitigations/:mitigationId/status.
func (h *PostureHandlers) SetMitigationStatus(c *gin.Context) {
	threatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed threat id"})
		return
	}
	mitigationID, err := uuid.Parse(c.Param("mitigationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed mitigation id"})
		return
	}

	var req SetMitigationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	mitigation, err := h.service.SetMitigationStatus(c.Request.Context(), threatID, mitigationID, entity.MitigationStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mitigation)
}

// GenerateReport handles POST /api/v1/reports/:id.
func (h *PostureHandlers) GenerateReport(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "malformed subject id"})
		return
	}

	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	doc, err := h.service.GenerateReport(c.Request.Context(), subjectID, usecase.SubjectKind(req.Kind), req.OrganizationName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, GenerateReportResponse{
		ReportID:    doc.ID,
		SubjectID:   doc.SubjectID,
		Type:        string(doc.Type),
		Format:      doc.Format,
		GeneratedBy: doc.GeneratedBy,
		SizeBytes:   doc.SizeBytes,
		GeneratedAt: doc.GeneratedAt,
	})
}

// respondError maps the engine's failure taxonomy onto HTTP status codes.
func (h *PostureHandlers) respondError(c *gin.Context, err error) {
	switch {
	case entity.IsInvalidInput(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_input", Message: err.Error()})
	case entity.IsEmptyDataset(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty_dataset", Message: err.Error()})
	case entity.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case entity.IsConflictWrite(err):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict", Message: "concurrent update lost a race, retry"})
	default:
		h.logger.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "internal error"})
	}
}
