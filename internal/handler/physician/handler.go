package physician

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-core/internal/cascade"
	"github.com/jwalitptl/clinic-core/internal/handler"
	"github.com/jwalitptl/clinic-core/internal/model"
)

type Service interface {
	AddPhysician(ctx context.Context, p *model.Physician) (*model.Physician, error)
	GetPhysicianByID(ctx context.Context, id string) (*model.Physician, error)
	ListPhysicians(ctx context.Context) ([]*model.Physician, error)
	UpdatePhysician(ctx context.Context, p *model.Physician) (*model.Physician, error)
	RemovePhysician(ctx context.Context, id string) (*cascade.Report, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	physicians := r.Group("/physicians")
	{
		physicians.POST("", h.CreatePhysician)
		physicians.GET("", h.ListPhysicians)
		physicians.GET("/:id", h.GetPhysician)
		physicians.PUT("/:id", h.UpdatePhysician)
		physicians.DELETE("/:id", h.DeletePhysician)
	}
}

// CreatePhysician answers 201 for a new physician and 200 when the id was
// already taken and the stored record is returned instead.
func (h *Handler) CreatePhysician(c *gin.Context) {
	var req model.Physician
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	existing, err := h.service.GetPhysicianByID(c.Request.Context(), req.ID)
	if err == nil && existing != nil {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(existing))
		return
	}

	physician, err := h.service.AddPhysician(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(physician))
}

func (h *Handler) GetPhysician(c *gin.Context) {
	physician, err := h.service.GetPhysicianByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(physician))
}

func (h *Handler) ListPhysicians(c *gin.Context) {
	physicians, err := h.service.ListPhysicians(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(physicians))
}

func (h *Handler) UpdatePhysician(c *gin.Context) {
	var req model.Physician
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}
	req.ID = c.Param("id")

	physician, err := h.service.UpdatePhysician(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(physician))
}

// DeletePhysician removes the physician with everything that depends on it
// and returns what was removed.
func (h *Handler) DeletePhysician(c *gin.Context) {
	report, err := h.service.RemovePhysician(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}
