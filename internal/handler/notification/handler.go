package notification

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-core/internal/handler"
	"github.com/jwalitptl/clinic-core/internal/model"
)

type Service interface {
	Send(ctx context.Context, notification *model.Notification) (*model.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Notification, error)
	List(ctx context.Context) ([]*model.Notification, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.POST("", h.SendNotification)
		notifications.GET("", h.ListNotifications)
	}
}

func (h *Handler) SendNotification(c *gin.Context) {
	var req model.Notification
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	n, err := h.service.Send(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(n))
}

// ListNotifications filters by ?user_id= when given.
func (h *Handler) ListNotifications(c *gin.Context) {
	var (
		list []*model.Notification
		err  error
	)
	if userID := c.Query("user_id"); userID != "" {
		list, err = h.service.ListForUser(c.Request.Context(), userID)
	} else {
		list, err = h.service.List(c.Request.Context())
	}
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}
