package prescription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository/memory"
	"github.com/jwalitptl/clinic-core/internal/validation"
	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
)

func TestPrescriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 4, 1, 12, 0, 0, 0, time.Local)
	svc := NewService(memory.NewPrescriptionRepository(), validation.New(validation.WithClock(func() time.Time { return today })), nil)

	_, err := svc.AddPrescription(ctx, &model.Prescription{
		PhysicianID: "p1", PatientName: "Jo", MedicationName: "Amoxicillin", Dosage: "500mg",
		StartDate: today.AddDate(0, 0, -3), DurationDays: 5,
	})
	assert.True(t, apperrors.IsValidation(err))

	created, err := svc.AddPrescription(ctx, &model.Prescription{
		PhysicianID: "p1", PatientName: "Jo", MedicationName: "Amoxicillin", Dosage: "500mg",
		StartDate: today, DurationDays: 5,
	})
	require.NoError(t, err)

	created.DurationDays = 10
	updated, err := svc.UpdatePrescription(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.DurationDays)

	forJo, err := svc.ListForPatient(ctx, "jo")
	require.NoError(t, err)
	assert.Len(t, forJo, 1)
	forP1, err := svc.ListForPhysician(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, forP1, 1)

	require.NoError(t, svc.DeletePrescription(ctx, created.ID))
	assert.True(t, apperrors.IsNotFound(svc.DeletePrescription(ctx, created.ID)))
	_, err = svc.GetPrescription(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAddPrescriptionIgnoresCallerID(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 4, 1, 12, 0, 0, 0, time.Local)
	svc := NewService(memory.NewPrescriptionRepository(), validation.New(validation.WithClock(func() time.Time { return today })), nil)

	first, err := svc.AddPrescription(ctx, &model.Prescription{
		PhysicianID: "p1", PatientName: "Jo", MedicationName: "Amoxicillin", Dosage: "500mg",
		StartDate: today, DurationDays: 5,
	})
	require.NoError(t, err)

	second, err := svc.AddPrescription(ctx, &model.Prescription{
		ID: first.ID, PhysicianID: "p2", PatientName: "Al", MedicationName: "Ibuprofen", Dosage: "200mg",
		StartDate: today, DurationDays: 3,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	forAl, err := svc.ListForPatient(ctx, "al")
	require.NoError(t, err)
	require.Len(t, forAl, 1)
	assert.Equal(t, "Ibuprofen", forAl[0].MedicationName)

	stored, err := svc.GetPrescription(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jo", stored.PatientName)
}
