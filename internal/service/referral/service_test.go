package referral

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

func TestReferralLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewReferralRepository(), validation.New(), nil)
	now := time.Now()

	_, err := svc.AddReferral(ctx, &model.Referral{PhysicianID: "p1", PatientName: "Jo", Date: now})
	assert.True(t, apperrors.IsValidation(err))

	made, err := svc.AddReferral(ctx, &model.Referral{PhysicianID: "p1", PatientName: "Jo", TargetSpecialty: "ent", Date: now})
	require.NoError(t, err)
	_, err = svc.AddReferral(ctx, &model.Referral{PhysicianID: "p2", PatientName: "Al", TargetSpecialty: "cardiology", TargetPhysicianID: "p1", Date: now})
	require.NoError(t, err)

	forP1, err := svc.ListForPhysician(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, forP1, 2)

	forBlank, err := svc.ListForPhysician(ctx, " ")
	require.NoError(t, err)
	assert.Empty(t, forBlank)

	made.Reason = "hearing loss"
	updated, err := svc.UpdateReferral(ctx, made)
	require.NoError(t, err)
	assert.Equal(t, "hearing loss", updated.Reason)

	forJo, err := svc.ListForPatient(ctx, "JO")
	require.NoError(t, err)
	assert.Len(t, forJo, 1)

	require.NoError(t, svc.DeleteReferral(ctx, made.ID))
	_, err = svc.GetReferral(ctx, made.ID)
	assert.True(t, apperrors.IsNotFound(err))

	all, err := svc.ListReferrals(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAddReferralIgnoresCallerID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewReferralRepository(), validation.New(), nil)
	now := time.Now()

	first, err := svc.AddReferral(ctx, &model.Referral{PhysicianID: "p1", PatientName: "Jo", TargetSpecialty: "ent", Date: now})
	require.NoError(t, err)

	second, err := svc.AddReferral(ctx, &model.Referral{ID: first.ID, PhysicianID: "p2", PatientName: "Al", TargetSpecialty: "derm", Date: now})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Al", second.PatientName)

	all, err := svc.ListReferrals(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
