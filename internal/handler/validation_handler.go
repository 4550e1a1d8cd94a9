package handler

import (
	"net/http"

	"purchaseflow/internal/service"
	"purchaseflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// ValidationHandler serves the pre-submission checks used by the request form.
type ValidationHandler struct {
	validationService service.ValidationService
}

func NewValidationHandler(validationService service.ValidationService) *ValidationHandler {
	return &ValidationHandler{validationService: validationService}
}

func (h *ValidationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/validation")
	{
		group.POST("/validate-request", h.ValidateRequest)
		group.GET("/business-rules", h.BusinessRules)
		group.POST("/simulate", h.Simulate)
		group.GET("/existing/:key", h.ValidateExisting)
	}
}

// ValidateRequest checks a draft and previews its routing
// @Summary      Validate a draft purchase request
// @Description  Returns {valid, errors, warnings, approvalInfo}. Invalid drafts still get 200.
// @Tags         validation
// @Accept       json
// @Produce      json
// @Param        request  body      service.PurchaseRequestDTO  true  "Draft"
// @Success      200      {object}  service.ValidationResponse
// @Router       /api/validation/validate-request [post]
func (h *ValidationHandler) ValidateRequest(c *gin.Context) {
	var req service.PurchaseRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.validationService.ValidateRequest(req))
}

// BusinessRules lists the active thresholds and approvers
// @Summary      Active business rules
// @Tags         validation
// @Produce      json
// @Success      200  {object}  response.Response{data=service.BusinessRules}
// @Router       /api/validation/business-rules [get]
func (h *ValidationHandler) BusinessRules(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.validationService.BusinessRules()))
}

// Simulate shows what the decision table receives and decides
// @Summary      Simulate routing
// @Tags         validation
// @Accept       json
// @Produce      json
// @Param        request  body      service.SimulationInput  true  "Amount, category, priority"
// @Success      200      {object}  response.Response{data=service.SimulationResult}
// @Failure      422      {object}  response.Response
// @Router       /api/validation/simulate [post]
func (h *ValidationHandler) Simulate(c *gin.Context) {
	var req service.SimulationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.validationService.Simulate(req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ValidateExisting re-checks a stored request
// @Summary      Re-validate a stored request
// @Tags         validation
// @Produce      json
// @Param        key  path      string  true  "Business key"
// @Success      200  {object}  response.Response{data=service.ExistingValidation}
// @Failure      404  {object}  response.Response
// @Router       /api/validation/existing/{key} [get]
func (h *ValidationHandler) ValidateExisting(c *gin.Context) {
	result, err := h.validationService.ValidateExisting(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
