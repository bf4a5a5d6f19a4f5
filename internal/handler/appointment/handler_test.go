package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/repository/memory"
	"github.com/jwalitptl/clinic-core/internal/scheduling"
	appointmentsvc "github.com/jwalitptl/clinic-core/internal/service/appointment"
	"github.com/jwalitptl/clinic-core/internal/service/notification"
	"github.com/jwalitptl/clinic-core/internal/validation"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) (*gin.Engine, repository.Stores) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	stores := memory.NewStores()
	v := validation.New()
	notifSvc := notification.NewService(stores.Notifications, v, zerolog.Nop(), nil)
	svc := appointmentsvc.NewService(stores.Appointments, scheduling.NewKeyedMutex(), v, notifSvc, zerolog.Nop(), nil)

	engine := gin.New()
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine, stores
}

func do(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

var slot = time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)

func TestCreateAppointmentAndDoubleBooking(t *testing.T) {
	engine, _ := setupRouter(t)

	w, env := do(t, engine, http.MethodPost, "/api/v1/appointments",
		model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: slot})
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)

	w, env = do(t, engine, http.MethodPost, "/api/v1/appointments",
		model.Appointment{PhysicianID: "p1", PatientName: "Al", DateTime: slot})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "date_time", env.Field)
	assert.Contains(t, env.Message, "slot already taken")

	w, _ = do(t, engine, http.MethodPost, "/api/v1/appointments",
		model.Appointment{PhysicianID: "p2", PatientName: "Al", DateTime: slot})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateAppointmentValidation(t *testing.T) {
	engine, stores := setupRouter(t)

	w, env := do(t, engine, http.MethodPost, "/api/v1/appointments",
		model.Appointment{PhysicianID: "p1", PatientName: "  ", DateTime: slot})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "patient_name", env.Field)

	all, err := stores.Appointments.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRescheduleByCompositeIdentity(t *testing.T) {
	engine, _ := setupRouter(t)
	later := slot.Add(time.Hour)

	w, _ := do(t, engine, http.MethodPost, "/api/v1/appointments",
		model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: slot})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = do(t, engine, http.MethodPost, "/api/v1/appointments",
		model.Appointment{PhysicianID: "p1", PatientName: "Al", DateTime: later})
	require.Equal(t, http.StatusCreated, w.Code)

	original := model.Appointment{PhysicianID: "p1", PatientName: "jo", DateTime: slot}

	w, _ = do(t, engine, http.MethodPut, "/api/v1/appointments", model.UpdateAppointmentRequest{
		Original: original,
		Updated:  model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: later},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, engine, http.MethodPut, "/api/v1/appointments", model.UpdateAppointmentRequest{
		Original: original,
		Updated:  model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: slot, Notes: "follow-up"},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, engine, http.MethodGet, "/api/v1/physicians/p1/appointments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []*model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "follow-up", list[0].Notes)
}

func TestDeleteByIDAndCancel(t *testing.T) {
	engine, stores := setupRouter(t)

	_, env := do(t, engine, http.MethodPost, "/api/v1/appointments",
		model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: slot})
	var created model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &created))
	_, _ = do(t, engine, http.MethodPost, "/api/v1/appointments",
		model.Appointment{PhysicianID: "p1", PatientName: "Al", DateTime: slot.Add(time.Hour)})

	w, _ := do(t, engine, http.MethodDelete, "/api/v1/appointments/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = do(t, engine, http.MethodDelete, "/api/v1/appointments/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, engine, http.MethodPost, "/api/v1/appointments/cancel",
		model.Appointment{PhysicianID: "p1", PatientName: "AL", DateTime: slot.Add(time.Hour)})
	assert.Equal(t, http.StatusNoContent, w.Code)

	all, err := stores.Appointments.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	notes, err := stores.Notifications.ListByUser(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, notes, 4)
}

func TestInvalidIDAndEmptyPhysician(t *testing.T) {
	engine, _ := setupRouter(t)

	w, _ := do(t, engine, http.MethodGet, "/api/v1/appointments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, engine, http.MethodGet, "/api/v1/physicians/nobody/appointments", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(env.Data))
}
