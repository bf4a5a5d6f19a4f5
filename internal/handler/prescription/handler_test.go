package prescription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository/memory"
	prescriptionsvc "github.com/jwalitptl/clinic-core/internal/service/prescription"
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

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	resp := struct {
		Data interface{} `json:"data"`
	}{Data: into}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
}

func newEngine(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestPrescriptionRoutes(t *testing.T) {
	engine := newEngine(prescriptionsvc.NewService(memory.NewPrescriptionRepository(), validation.New(), nil))
	start := time.Now().Add(24 * time.Hour)

	w := do(t, engine, http.MethodPost, "/api/v1/prescriptions", model.Prescription{
		PhysicianID: "p1", PatientName: "Jo", MedicationName: "Amoxicillin", Dosage: "500mg",
		StartDate: start, DurationDays: 7,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Prescription
	decode(t, w, &created)
	require.NotEqual(t, uuid.Nil, created.ID)

	w = do(t, engine, http.MethodPost, "/api/v1/prescriptions", model.Prescription{
		PhysicianID: "p2", PatientName: "Al", MedicationName: "Ibuprofen", Dosage: "200mg",
		StartDate: start, DurationDays: 3,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("list for patient ignores case", func(t *testing.T) {
		w := do(t, engine, http.MethodGet, "/api/v1/patients/JO/prescriptions", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []model.Prescription
		decode(t, w, &list)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	})

	t.Run("list for physician", func(t *testing.T) {
		w := do(t, engine, http.MethodGet, "/api/v1/physicians/p2/prescriptions", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []model.Prescription
		decode(t, w, &list)
		require.Len(t, list, 1)
		assert.Equal(t, "Ibuprofen", list[0].MedicationName)
	})

	t.Run("update", func(t *testing.T) {
		next := created
		next.DurationDays = 10
		w := do(t, engine, http.MethodPut, "/api/v1/prescriptions/"+created.ID.String(), next)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"duration_days":10`)
	})

	t.Run("bad requests", func(t *testing.T) {
		w := do(t, engine, http.MethodPost, "/api/v1/prescriptions", model.Prescription{PhysicianID: "p1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field"`)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		assert.Equal(t, http.StatusBadRequest, do(t, engine, http.MethodGet, "/api/v1/prescriptions/not-a-uuid", nil).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, engine, http.MethodPut, "/api/v1/prescriptions/not-a-uuid", created).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, engine, http.MethodDelete, "/api/v1/prescriptions/not-a-uuid", nil).Code)
	})

	t.Run("missing", func(t *testing.T) {
		missing := "/api/v1/prescriptions/" + uuid.NewString()
		assert.Equal(t, http.StatusNotFound, do(t, engine, http.MethodGet, missing, nil).Code)
		assert.Equal(t, http.StatusNotFound, do(t, engine, http.MethodPut, missing, created).Code)
		assert.Equal(t, http.StatusNotFound, do(t, engine, http.MethodDelete, missing, nil).Code)
	})

	t.Run("delete", func(t *testing.T) {
		path := "/api/v1/prescriptions/" + created.ID.String()
		assert.Equal(t, http.StatusNoContent, do(t, engine, http.MethodDelete, path, nil).Code)
		assert.Equal(t, http.StatusNotFound, do(t, engine, http.MethodGet, path, nil).Code)

		w := do(t, engine, http.MethodGet, "/api/v1/patients/jo/prescriptions", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []model.Prescription
		decode(t, w, &list)
		assert.Empty(t, list)
	})
}

type brokenService struct{ Service }

func (brokenService) ListForPatient(context.Context, string) ([]*model.Prescription, error) {
	return nil, errors.New("database is locked")
}

func TestStoreFailureIsHidden(t *testing.T) {
	engine := newEngine(brokenService{})

	w := do(t, engine, http.MethodGet, "/api/v1/patients/jo/prescriptions", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database is locked")
}
