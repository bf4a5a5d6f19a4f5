package medication

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-core/internal/handler"
	"github.com/jwalitptl/clinic-core/internal/model"
)

type Service interface {
	AddMedication(ctx context.Context, m *model.Medication) (*model.Medication, error)
	GetMedication(ctx context.Context, key model.MedicationKey) (*model.Medication, error)
	ListMedications(ctx context.Context) ([]*model.Medication, error)
	UpdateMedication(ctx context.Context, m *model.Medication) (*model.Medication, error)
	DeleteMedication(ctx context.Context, key model.MedicationKey) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Medications are addressed by /:name/:dosage, their catalog key.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	medications := r.Group("/medications")
	{
		medications.POST("", h.CreateMedication)
		medications.GET("", h.ListMedications)
		medications.GET("/:name/:dosage", h.GetMedication)
		medications.PUT("/:name/:dosage", h.UpdateMedication)
		medications.DELETE("/:name/:dosage", h.DeleteMedication)
	}
}

func (h *Handler) CreateMedication(c *gin.Context) {
	var req model.Medication
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}

	m, err := h.service.AddMedication(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(m))
}

func (h *Handler) GetMedication(c *gin.Context) {
	m, err := h.service.GetMedication(c.Request.Context(), keyOf(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(m))
}

func (h *Handler) ListMedications(c *gin.Context) {
	list, err := h.service.ListMedications(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) UpdateMedication(c *gin.Context) {
	var req model.Medication
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err.Error())
		return
	}
	key := keyOf(c)
	req.Name, req.Dosage = key.Name, key.Dosage

	m, err := h.service.UpdateMedication(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(m))
}

func (h *Handler) DeleteMedication(c *gin.Context) {
	if err := h.service.DeleteMedication(c.Request.Context(), keyOf(c)); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func keyOf(c *gin.Context) model.MedicationKey {
	return model.MedicationKey{Name: c.Param("name"), Dosage: c.Param("dosage")}
}
