package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/repository/memory"
	"github.com/jwalitptl/clinic-core/internal/scheduling"
	"github.com/jwalitptl/clinic-core/internal/service/notification"
	"github.com/jwalitptl/clinic-core/internal/validation"
	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
)

type testEnv struct {
	svc     *Service
	stores  repository.Stores
	metrics *metrics.Metrics
	locker  *scheduling.KeyedMutex
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	stores := memory.NewStores()
	m := metrics.New("clinic", prometheus.NewRegistry())
	v := validation.New()
	notifSvc := notification.NewService(stores.Notifications, v, zerolog.Nop(), m)
	locker := scheduling.NewKeyedMutex()
	return &testEnv{
		svc:     NewService(stores.Appointments, locker, v, notifSvc, zerolog.Nop(), m),
		stores:  stores,
		metrics: m,
		locker:  locker,
	}
}

var nine = time.Date(2026, 6, 1, 9, 0, 0, 0, time.Local)

func TestAddAppointmentRejectsDoubleBooking(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	_, err := env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: nine})
	require.NoError(t, err)

	_, err = env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Al", DateTime: nine})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Contains(t, err.Error(), "slot already taken at 2026-06-01 09:00")

	appts, err := env.svc.GetAppointmentsForPhysician(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, appts, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.SlotConflicts))

	// Another physician is free at the same instant.
	_, err = env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p2", PatientName: "Al", DateTime: nine})
	assert.NoError(t, err)
}

func TestAddAppointmentConcurrentSameSlot(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, conflicted int
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: nine})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.IsConflict(err):
				conflicted++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 24, conflicted)
	appts, err := env.svc.GetAppointmentsForPhysician(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestAddAppointmentValidation(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	_, err := env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "  ", DateTime: nine})
	assert.True(t, apperrors.IsValidation(err))

	_, err = env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Jo"})
	assert.True(t, apperrors.IsValidation(err))

	all, err := env.svc.ListAppointments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetAppointmentsForUnknownPhysicianIsEmpty(t *testing.T) {
	env := setup(t)

	appts, err := env.svc.GetAppointmentsForPhysician(context.Background(), "ghost")
	require.NoError(t, err)
	assert.NotNil(t, appts)
	assert.Empty(t, appts)
}

func TestUpdateAppointment(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	ten := nine.Add(time.Hour)

	jo, err := env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: nine, Notes: "first"})
	require.NoError(t, err)
	_, err = env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Al", DateTime: ten})
	require.NoError(t, err)

	t.Run("notes only by id", func(t *testing.T) {
		updated := jo.Clone()
		updated.Notes = "second"
		saved, err := env.svc.UpdateAppointment(ctx, jo, updated)
		require.NoError(t, err)
		assert.Equal(t, "second", saved.Notes)
		assert.Equal(t, jo.ID, saved.ID)
	})

	t.Run("notes only by composite identity", func(t *testing.T) {
		original := &model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: nine}
		updated := &model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: nine, Notes: "third"}
		saved, err := env.svc.UpdateAppointment(ctx, original, updated)
		require.NoError(t, err)
		assert.Equal(t, "third", saved.Notes)
		assert.Equal(t, jo.ID, saved.ID)
	})

	t.Run("move onto taken slot", func(t *testing.T) {
		updated := jo.Clone()
		updated.DateTime = ten
		_, err := env.svc.UpdateAppointment(ctx, jo, updated)
		assert.True(t, apperrors.IsConflict(err))

		stored, err := env.svc.GetAppointment(ctx, jo.ID)
		require.NoError(t, err)
		assert.True(t, stored.DateTime.Equal(nine))
	})

	t.Run("move to another physician", func(t *testing.T) {
		updated := jo.Clone()
		updated.PhysicianID = "p2"
		saved, err := env.svc.UpdateAppointment(ctx, jo, updated)
		require.NoError(t, err)
		assert.Equal(t, "p2", saved.PhysicianID)

		p1, err := env.svc.GetAppointmentsForPhysician(ctx, "p1")
		require.NoError(t, err)
		assert.Len(t, p1, 1)

		msgs, err := env.stores.Notifications.ListByUser(ctx, "p2")
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, notification.TypeAppointmentRescheduled, msgs[0].Type)
	})

	t.Run("unknown original", func(t *testing.T) {
		_, err := env.svc.UpdateAppointment(ctx,
			&model.Appointment{ID: uuid.New(), PhysicianID: "p1"},
			&model.Appointment{PhysicianID: "p1", PatientName: "Zed", DateTime: nine})
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestDeleteAppointment(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	_, err := env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: nine})
	require.NoError(t, err)

	err = env.svc.DeleteAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "JO ", DateTime: nine})
	require.NoError(t, err)

	err = env.svc.DeleteAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: nine})
	assert.True(t, apperrors.IsNotFound(err))

	// The freed slot can be booked again.
	_, err = env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Al", DateTime: nine})
	require.NoError(t, err)

	msgs, err := env.stores.Notifications.ListByUser(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, notification.TypeAppointmentBooked, msgs[0].Type)
	assert.Equal(t, notification.TypeAppointmentCancelled, msgs[1].Type)
}

func TestAddAppointmentIgnoresCallerID(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	ten := nine.Add(time.Hour)

	first, err := env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Ann", DateTime: nine})
	require.NoError(t, err)

	second, err := env.svc.AddAppointment(ctx, &model.Appointment{ID: first.ID, PhysicianID: "p2", PatientName: "Bob", DateTime: ten})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Bob", second.PatientName)

	p2, err := env.svc.GetAppointmentsForPhysician(ctx, "p2")
	require.NoError(t, err)
	require.Len(t, p2, 1)
	assert.Equal(t, second.ID, p2[0].ID)

	stored, err := env.svc.GetAppointment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", stored.PhysicianID)
	assert.Equal(t, "Ann", stored.PatientName)
}

func TestUpdateByIDLocksStoredPhysician(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	jo, err := env.svc.AddAppointment(ctx, &model.Appointment{PhysicianID: "p1", PatientName: "Jo", DateTime: nine})
	require.NoError(t, err)

	// The caller only knows the id; the record belongs to p1.
	byID := &model.Appointment{ID: jo.ID}
	moved := &model.Appointment{PhysicianID: "p2", PatientName: "Jo", DateTime: nine}

	unlock, err := env.locker.Lock(ctx, "p1")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	_, err = env.svc.UpdateAppointment(waitCtx, byID, moved)
	cancel()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	waitCtx, cancel = context.WithTimeout(ctx, 50*time.Millisecond)
	err = env.svc.DeleteAppointment(waitCtx, byID)
	cancel()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := env.svc.GetAppointment(ctx, jo.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", stored.PhysicianID)

	unlock()

	saved, err := env.svc.UpdateAppointment(ctx, byID, moved)
	require.NoError(t, err)
	assert.Equal(t, "p2", saved.PhysicianID)
	assert.Equal(t, jo.ID, saved.ID)
}
