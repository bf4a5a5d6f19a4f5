package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/validation"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
)

// Notification types written by the core.
const (
	TypeAppointmentBooked      = "appointment_booked"
	TypeAppointmentRescheduled = "appointment_rescheduled"
	TypeAppointmentCancelled   = "appointment_cancelled"
)

// Service stores notifications for later pickup. Delivery is someone else's
// job.
type Service interface {
	Send(ctx context.Context, notification *model.Notification) (*model.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Notification, error)
	List(ctx context.Context) ([]*model.Notification, error)
}

type service struct {
	repo      repository.NotificationRepository
	validator *validation.Validator
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func NewService(repo repository.NotificationRepository, validator *validation.Validator, logger zerolog.Logger, m *metrics.Metrics) Service {
	return &service{
		repo:      repo,
		validator: validator,
		logger:    logger,
		metrics:   m,
	}
}

func (s *service) Send(ctx context.Context, notification *model.Notification) (*model.Notification, error) {
	if err := s.validator.ValidateNotification(notification); err != nil {
		return nil, fmt.Errorf("invalid notification: %w", err)
	}

	created, err := s.repo.Create(ctx, notification)
	s.metrics.Store("notification", "create", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Debug().
		Str("user_id", created.UserID).
		Str("type", created.Type).
		Msg("notification stored")
	return created, nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]*model.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *service) List(ctx context.Context) ([]*model.Notification, error) {
	notifications, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
