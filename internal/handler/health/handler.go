package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-core/internal/persistence"
)

// Source reports the health of the storage backend.
type Source interface {
	Health() persistence.Health
}

type Handler struct {
	source Source
}

func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("", h.BackendHealth)
		health.GET("/live", h.LivenessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// BackendHealth stays 200 on the in-memory fallback: the service still
// answers, it just is not durable.
func (h *Handler) BackendHealth(c *gin.Context) {
	backend := h.source.Health()
	status := "UP"
	if backend.Degraded {
		status = "DEGRADED"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"backend": backend,
	})
}
