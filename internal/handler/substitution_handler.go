package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/service"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

type substitutionService interface {
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.SubstitutionDetail, error)
	List(ctx context.Context, query dto.SubstitutionQuery, actor *models.JWTClaims) ([]dto.SubstitutionDetail, *models.Pagination, error)
	Confirm(ctx context.Context, id string, actor *models.JWTClaims) (*models.SubstitutionRecord, error)
	Cancel(ctx context.Context, id string, req dto.CancelSubstitutionRequest, actor *models.JWTClaims) (*dto.CancelSubstitutionResponse, error)
	RequestReplacement(ctx context.Context, id string, req dto.RequestReplacementRequest, actor *models.JWTClaims) (*dto.ReplacementResponse, error)
	AssignManually(ctx context.Context, id string, req dto.ManualAssignRequest, actor *models.JWTClaims) (*models.SubstitutionRecord, error)
	RetryAssignment(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReplacementResponse, error)
	Complete(ctx context.Context, id string, req dto.CompleteSubstitutionRequest, actor *models.JWTClaims) (*models.SubstitutionRecord, error)
	Candidates(ctx context.Context, query dto.CandidateQuery, actor *models.JWTClaims) ([]dto.CandidateEvaluation, error)
}

type substitutionReporter interface {
	DailySheet(ctx context.Context, query dto.ExportQuery, actor *models.JWTClaims) (*service.ReportFile, error)
}

// SubstitutionHandler exposes the substitution lifecycle endpoints.
type SubstitutionHandler struct {
	service  substitutionService
	reporter substitutionReporter
}

// NewSubstitutionHandler constructs a SubstitutionHandler.
func NewSubstitutionHandler(svc substitutionService, reporter substitutionReporter) *SubstitutionHandler {
	return &SubstitutionHandler{service: svc, reporter: reporter}
}

// List godoc
// @Summary List substitutions
// @Tags Substitutions
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param absentTeacherId query string false "Absent teacher"
// @Param substituteId query string false "Substitute teacher"
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /substitutions [get]
func (h *SubstitutionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.SubstitutionQuery{
		Date:            c.Query("date"),
		AbsentTeacherID: c.Query("absentTeacherId"),
		SubstituteID:    c.Query("substituteId"),
		Status:          parseStatuses(c.QueryArray("status")),
		Limit:           queryInt(c, "limit", 50),
		Offset:          queryInt(c, "offset", 0),
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get substitution
// @Tags Substitutions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /substitutions/{id} [get]
func (h *SubstitutionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Confirm godoc
// @Summary Confirm a pending substitution
// @Tags Substitutions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /substitutions/{id}/confirm [post]
func (h *SubstitutionHandler) Confirm(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.service.Confirm(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Cancel godoc
// @Summary Cancel a substitution
// @Tags Substitutions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Substitution ID"
// @Param payload body dto.CancelSubstitutionRequest true "Cancellation"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /substitutions/{id}/cancel [post]
func (h *SubstitutionHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CancelSubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancellation payload"))
		return
	}
	result, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RequestReplacement godoc
// @Summary Request a replacement substitute
// @Tags Substitutions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Substitution ID"
// @Param payload body dto.RequestReplacementRequest true "Replacement request"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/replacement [post]
func (h *SubstitutionHandler) RequestReplacement(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RequestReplacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid replacement payload"))
		return
	}
	result, err := h.service.RequestReplacement(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AssignManually godoc
// @Summary Manually assign a substitute
// @Tags Substitutions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Substitution ID"
// @Param payload body dto.ManualAssignRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /substitutions/{id}/assign [post]
func (h *SubstitutionHandler) AssignManually(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ManualAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	record, err := h.service.AssignManually(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// RetryAssignment godoc
// @Summary Re-run automatic matching for an unassigned period
// @Tags Substitutions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/retry [post]
func (h *SubstitutionHandler) RetryAssignment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.RetryAssignment(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Complete godoc
// @Summary Complete a confirmed substitution
// @Tags Substitutions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Substitution ID"
// @Param payload body dto.CompleteSubstitutionRequest false "Completion report"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/complete [post]
func (h *SubstitutionHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CompleteSubstitutionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
			return
		}
	}
	record, err := h.service.Complete(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Candidates godoc
// @Summary Explain candidate eligibility for a period
// @Tags Substitutions
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param period query int true "Period number"
// @Param subjectId query string true "Subject"
// @Param classId query string false "Class"
// @Param absentTeacherId query string true "Absent teacher"
// @Success 200 {object} response.Envelope
// @Router /substitutions/candidates [get]
func (h *SubstitutionHandler) Candidates(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.CandidateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate query"))
		return
	}
	items, err := h.service.Candidates(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Export godoc
// @Summary Download the daily substitution sheet
// @Tags Substitutions
// @Produce application/pdf
// @Produce text/csv
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /substitutions/export [get]
func (h *SubstitutionHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.reporter.DailySheet(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
