package medication

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository/memory"
	medicationsvc "github.com/jwalitptl/clinic-core/internal/service/medication"
	"github.com/jwalitptl/clinic-core/internal/validation"
)

func do(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestMedicationRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := medicationsvc.NewService(memory.NewMedicationRepository(), validation.New(), nil)
	engine := gin.New()
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))

	w := do(t, engine, http.MethodPost, "/api/v1/medications",
		model.Medication{Name: "Ibuprofen", Dosage: "200mg", DefaultFrequency: "tid"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, engine, http.MethodPost, "/api/v1/medications", model.Medication{Name: "Ibuprofen"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, engine, http.MethodPut, "/api/v1/medications/Ibuprofen/200mg",
		model.Medication{DefaultFrequency: "bid"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, engine, http.MethodGet, "/api/v1/medications/Ibuprofen/200mg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"default_frequency":"bid"`)

	assert.Equal(t, http.StatusNoContent, do(t, engine, http.MethodDelete, "/api/v1/medications/Ibuprofen/200mg", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, engine, http.MethodGet, "/api/v1/medications/Ibuprofen/200mg", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, engine, http.MethodDelete, "/api/v1/medications/Ibuprofen/200mg", nil).Code)
}
