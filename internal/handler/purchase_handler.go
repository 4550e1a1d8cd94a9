package handler

import (
	"net/http"

	"purchaseflow/internal/middleware"
	"purchaseflow/internal/service"
	"purchaseflow/pkg/pagination"
	"purchaseflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
	auth            *middleware.Auth
}

func NewPurchaseHandler(purchaseService service.PurchaseService, auth *middleware.Auth) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService, auth: auth}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/purchase-requests")
	{
		group.POST("", h.Submit)
		group.GET("", h.List)
		group.GET("/:key", h.Get)
		group.POST("/:key/cancel", h.auth.RequireRole(middleware.RoleAdmin), h.Cancel)
	}
}

// Submit creates a purchase request and starts its approval
// @Summary      Submit a purchase request
// @Description  Validates, routes and starts approval. AUTO tier requests come back already APPROVED.
// @Tags         purchase-requests
// @Accept       json
// @Produce      json
// @Param        request  body      service.PurchaseRequestDTO  true  "Purchase request"
// @Success      201      {object}  response.Response{data=service.SubmitResult}
// @Failure      422      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /api/purchase-requests [post]
func (h *PurchaseHandler) Submit(c *gin.Context) {
	var req service.PurchaseRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.purchaseService.Submit(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.SuccessWithWarnings(http.StatusCreated, result, result.Warnings))
}

// List returns purchase requests, newest first
// @Summary      List purchase requests
// @Tags         purchase-requests
// @Produce      json
// @Param        status           query     string  false  "Status filter"
// @Param        department       query     string  false  "Department filter"
// @Param        requester_email  query     string  false  "Requester filter"
// @Param        page             query     int     false  "Page number (default 1)"
// @Param        limit            query     int     false  "Items per page (default 20)"
// @Success      200              {object}  response.Response{data=response.Page}
// @Router       /api/purchase-requests [get]
func (h *PurchaseHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	items, total, err := h.purchaseService.List(c.Request.Context(), service.PurchaseRequestFilter{
		Status:         c.Query("status"),
		Department:     c.Query("department"),
		RequesterEmail: c.Query("requester_email"),
		Page:           p.Page,
		Limit:          p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(items, total)))
}

// Get returns one purchase request with its deadline and overdue flag
// @Summary      Get a purchase request
// @Tags         purchase-requests
// @Produce      json
// @Param        key  path      string  true  "Business key"
// @Success      200  {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/purchase-requests/{key} [get]
func (h *PurchaseHandler) Get(c *gin.Context) {
	result, err := h.purchaseService.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Cancel is the administrative override
// @Summary      Cancel a purchase request
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        key      path      string                    true   "Business key"
// @Param        request  body      service.CancelRequestDTO  false  "Reason"
// @Success      200      {object}  response.Response{data=service.PurchaseRequestResponse}
// @Router       /api/purchase-requests/{key}/cancel [post]
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	var req service.CancelRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow empty body, reason is optional
		req.Reason = ""
	}

	result, err := h.purchaseService.Cancel(c.Request.Context(), c.Param("key"), middleware.Actor(c), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
