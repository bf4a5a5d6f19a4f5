package notification

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository/memory"
	"github.com/jwalitptl/clinic-core/internal/validation"
	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
)

func TestSendAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewNotificationRepository(), validation.New(), zerolog.Nop(), nil)

	_, err := svc.Send(ctx, &model.Notification{UserID: "p1"})
	assert.True(t, apperrors.IsValidation(err))

	sent, err := svc.Send(ctx, &model.Notification{Message: "Jo booked", Type: TypeAppointmentBooked, UserID: "p1", UserType: model.UserTypePhysician})
	require.NoError(t, err)
	assert.False(t, sent.Timestamp.IsZero())

	_, err = svc.Send(ctx, &model.Notification{Message: "Desk memo", UserID: "r1", UserType: model.UserTypeReceptionist})
	require.NoError(t, err)

	mine, err := svc.ListForUser(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Jo booked", mine[0].Message)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
