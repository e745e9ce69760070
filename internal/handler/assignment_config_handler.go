package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

type assignmentConfigService interface {
	Get(ctx context.Context, tenantID string) (models.AssignmentConfig, error)
	Update(ctx context.Context, tenantID string, req dto.UpdateAssignmentConfigRequest, actor *models.JWTClaims) (*models.AssignmentConfig, error)
}

// AssignmentConfigHandler manages the per-tenant scoring and workload settings.
type AssignmentConfigHandler struct {
	service assignmentConfigService
}

// NewAssignmentConfigHandler constructs an AssignmentConfigHandler.
func NewAssignmentConfigHandler(svc assignmentConfigService) *AssignmentConfigHandler {
	return &AssignmentConfigHandler{service: svc}
}

// Get godoc
// @Summary Get assignment configuration
// @Tags Assignment Config
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assignment-config [get]
func (h *AssignmentConfigHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	cfg, err := h.service.Get(c.Request.Context(), claims.TenantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Update godoc
// @Summary Replace assignment configuration
// @Tags Assignment Config
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateAssignmentConfigRequest true "Configuration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /assignment-config [put]
func (h *AssignmentConfigHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateAssignmentConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid configuration payload"))
		return
	}
	cfg, err := h.service.Update(c.Request.Context(), claims.TenantID, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}
