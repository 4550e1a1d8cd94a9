package handler

import (
	"context"
	"net/http"

	"purchaseflow/internal/middleware"
	"purchaseflow/internal/service"
	"purchaseflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// Sweeper runs the overdue sweep; in production it is the scheduler, so a
// manual sweep never overlaps the cron one.
type Sweeper interface {
	Sweep(ctx context.Context) (service.SweepResult, error)
}

type ReminderHandler struct {
	reminderService service.ReminderService
	sweeper         Sweeper
	auth            *middleware.Auth
}

func NewReminderHandler(reminderService service.ReminderService, sweeper Sweeper, auth *middleware.Auth) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService, sweeper: sweeper, auth: auth}
}

func (h *ReminderHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/reminders")
	{
		group.POST("", h.auth.RequireRole(middleware.RoleWorkflow, middleware.RoleAdmin), h.Remind)
		group.POST("/sweep", h.auth.RequireRole(middleware.RoleAdmin), h.Sweep)
	}
}

// Remind records one reminder and queues the message to the assignee
// @Summary      Send a reminder
// @Tags         reminders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        reminder  body      service.ReminderDTO  true  "Reminder"
// @Success      200       {object}  response.Response{data=service.ReminderResult}
// @Router       /api/reminders [post]
func (h *ReminderHandler) Remind(c *gin.Context) {
	var req service.ReminderDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.reminderService.Remind(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Sweep runs the overdue reminder sweep now
// @Summary      Run the reminder sweep
// @Tags         reminders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.SweepResult}
// @Failure      409  {object}  response.Response
// @Router       /api/reminders/sweep [post]
func (h *ReminderHandler) Sweep(c *gin.Context) {
	result, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
