package handler

import (
	"net/http"

	"purchaseflow/internal/lifecycle"
	"purchaseflow/internal/middleware"
	"purchaseflow/internal/service"
	"purchaseflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// SignalHandler receives approval outcomes from the orchestration runtime.
type SignalHandler struct {
	signalService service.SignalService
	auth          *middleware.Auth
}

func NewSignalHandler(signalService service.SignalService, auth *middleware.Auth) *SignalHandler {
	return &SignalHandler{signalService: signalService, auth: auth}
}

func (h *SignalHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/signals")
	group.Use(h.auth.RequireRole(middleware.RoleWorkflow, middleware.RoleAdmin))
	{
		group.POST("/approved", h.Approved)
		group.POST("/rejected", h.Rejected)
	}
}

// Approved applies an "approved" signal
// @Summary      Approved signal
// @Description  A signal for an already finished request is accepted with applied=false.
// @Tags         signals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        signal  body      lifecycle.Signal  true  "Signal"
// @Success      200     {object}  response.Response{data=service.SignalResult}
// @Failure      404     {object}  response.Response
// @Failure      409     {object}  response.Response
// @Router       /api/signals/approved [post]
func (h *SignalHandler) Approved(c *gin.Context) {
	var sig lifecycle.Signal
	if err := c.ShouldBindJSON(&sig); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.signalService.Approve(c.Request.Context(), sig)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Rejected applies a "rejected" signal; comments become the rejection reason
// @Summary      Rejected signal
// @Tags         signals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        signal  body      lifecycle.Signal  true  "Signal"
// @Success      200     {object}  response.Response{data=service.SignalResult}
// @Router       /api/signals/rejected [post]
func (h *SignalHandler) Rejected(c *gin.Context) {
	var sig lifecycle.Signal
	if err := c.ShouldBindJSON(&sig); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.signalService.Reject(c.Request.Context(), sig)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
