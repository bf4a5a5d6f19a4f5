package referral

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/handler"
	"github.com/jwalitptl/clinic-core/internal/model"
)

type Service interface {
	AddReferral(ctx context.Context, r *model.Referral) (*model.Referral, error)
	GetReferral(ctx context.Context, id uuid.UUID) (*model.Referral, error)
	ListReferrals(ctx context.Context) ([]*model.Referral, error)
	ListForPhysician(ctx context.Context, physicianID string) ([]*model.Referral, error)
	ListForPatient(ctx context.Context, patientName string) ([]*model.Referral, error)
	UpdateReferral(ctx context.Context, r *model.Referral) (*model.Referral, error)
	DeleteReferral(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	referrals := r.Group("/referrals")
	{
		referrals.POST("", h.CreateReferral)
		referrals.GET("", h.ListReferrals)
		referrals.GET("/:id", h.GetReferral)
		referrals.PUT("/:id", h.UpdateReferral)
		referrals.DELETE("/:id", h.DeleteReferral)
	}
	r.GET("/physicians/:id/referrals", h.ListForPhysician)
	r.GET("/patients/:name/referrals", h.ListForPatient)
}

func (h *Handler) CreateReferral(c *gin.Context) {
	var req model.Referral
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	ref, err := h.service.AddReferral(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(ref))
}

func (h *Handler) GetReferral(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ref, err := h.service.GetReferral(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(ref))
}

func (h *Handler) ListReferrals(c *gin.Context) {
	list, err := h.service.ListReferrals(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

// ListForPhysician returns referrals the physician made or received.
func (h *Handler) ListForPhysician(c *gin.Context) {
	list, err := h.service.ListForPhysician(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) ListForPatient(c *gin.Context) {
	list, err := h.service.ListForPatient(c.Request.Context(), c.Param("name"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) UpdateReferral(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req model.Referral
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}
	req.ID = id

	ref, err := h.service.UpdateReferral(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(ref))
}

func (h *Handler) DeleteReferral(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteReferral(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.BadRequest(c, "invalid referral ID")
		return uuid.Nil, false
	}
	return id, true
}
