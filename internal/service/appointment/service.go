package appointment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/scheduling"
	"github.com/jwalitptl/clinic-core/internal/service/notification"
	"github.com/jwalitptl/clinic-core/internal/validation"
	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
)

// Service books, moves and cancels appointments. Every write runs its slot
// check and store write under the physician's lock.
type Service struct {
	repo      repository.AppointmentRepository
	resolver  *scheduling.Resolver
	locker    scheduling.Locker
	validator *validation.Validator
	notifSvc  notification.Service
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func NewService(
	repo repository.AppointmentRepository,
	locker scheduling.Locker,
	validator *validation.Validator,
	notifSvc notification.Service,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:      repo,
		resolver:  scheduling.NewResolver(repo),
		locker:    locker,
		validator: validator,
		notifSvc:  notifSvc,
		logger:    logger.With().Str("component", "appointment").Logger(),
		metrics:   m,
	}
}

func (s *Service) AddAppointment(ctx context.Context, apt *model.Appointment) (*model.Appointment, error) {
	if err := s.validator.ValidateAppointment(apt); err != nil {
		return nil, fmt.Errorf("invalid appointment: %w", err)
	}

	unlock, err := s.lock(ctx, apt.PhysicianID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ok, err := s.resolver.IsSlotAvailable(ctx, apt.PhysicianID, apt.DateTime)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if !ok {
		return nil, s.conflict(apt.PhysicianID, apt.DateTime)
	}

	// Ids are assigned by the store; a caller-supplied one could collide
	// with an existing booking and be ignored.
	next := apt.Clone()
	next.ID = uuid.Nil
	created, err := s.repo.Add(ctx, next)
	s.metrics.Store("appointment", "create", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.notify(ctx, created, notification.TypeAppointmentBooked,
		fmt.Sprintf("%s booked for %s", created.PatientName, created.DateTime.Format(apperrors.SlotTimeFormat)))
	return created, nil
}

// UpdateAppointment replaces the stored appointment identified by original
// with updated. original is matched by id when it has one, otherwise by
// (physician id, patient name, date-time).
func (s *Service) UpdateAppointment(ctx context.Context, original, updated *model.Appointment) (*model.Appointment, error) {
	if original == nil {
		return nil, apperrors.NewValidation("original", "is required")
	}
	if err := s.validator.ValidateAppointment(updated); err != nil {
		return nil, fmt.Errorf("invalid appointment: %w", err)
	}

	stored, unlock, err := s.lockStored(ctx, original, updated.PhysicianID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ok, err := s.resolver.IsSlotAvailableForUpdate(ctx, updated.PhysicianID, updated.DateTime, stored)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if !ok {
		return nil, s.conflict(updated.PhysicianID, updated.DateTime)
	}

	next := updated.Clone()
	next.ID = stored.ID
	saved, err := s.repo.Update(ctx, next)
	s.metrics.Store("appointment", "update", err)
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	if !saved.DateTime.Equal(stored.DateTime) || saved.PhysicianID != stored.PhysicianID {
		s.notify(ctx, saved, notification.TypeAppointmentRescheduled,
			fmt.Sprintf("%s moved to %s", saved.PatientName, saved.DateTime.Format(apperrors.SlotTimeFormat)))
	}
	return saved, nil
}

// DeleteAppointment removes the stored appointment identified by original.
func (s *Service) DeleteAppointment(ctx context.Context, original *model.Appointment) error {
	if original == nil {
		return apperrors.NewValidation("appointment", "is required")
	}

	stored, unlock, err := s.lockStored(ctx, original)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.repo.Delete(ctx, stored.ID)
	s.metrics.Store("appointment", "delete", err)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	s.notify(ctx, stored, notification.TypeAppointmentCancelled,
		fmt.Sprintf("%s cancelled for %s", stored.PatientName, stored.DateTime.Format(apperrors.SlotTimeFormat)))
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

// GetAppointmentsForPhysician returns a snapshot that is empty, never an
// error, for a physician with no bookings.
func (s *Service) GetAppointmentsForPhysician(ctx context.Context, physicianID string) ([]*model.Appointment, error) {
	appts, err := s.repo.ListByPhysician(ctx, physicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	if appts == nil {
		appts = []*model.Appointment{}
	}
	return appts, nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]*model.Appointment, error) {
	appts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) find(ctx context.Context, original *model.Appointment) (*model.Appointment, error) {
	if original.ID != uuid.Nil {
		stored, err := s.repo.Get(ctx, original.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get appointment: %w", err)
		}
		return stored, nil
	}
	appts, err := s.repo.ListByPhysician(ctx, original.PhysicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	for _, a := range appts {
		if a.Matches(original) {
			return a, nil
		}
	}
	return nil, apperrors.NewNotFound("appointment", nil)
}

// maxRelock bounds how often lockStored chases an appointment that keeps
// moving to another physician between lookup and lock.
const maxRelock = 3

// lockStored resolves original to its stored record and locks that record's
// physician together with extra. The record is re-read under the lock; if it
// moved to another physician in between, the locks are dropped and taken
// again for its new owner.
func (s *Service) lockStored(ctx context.Context, original *model.Appointment, extra ...string) (*model.Appointment, func(), error) {
	stored, err := s.find(ctx, original)
	if err != nil {
		return nil, nil, err
	}

	for attempt := 0; ; attempt++ {
		unlock, err := s.lock(ctx, append([]string{stored.PhysicianID}, extra...)...)
		if err != nil {
			return nil, nil, err
		}

		current, err := s.repo.Get(ctx, stored.ID)
		if err != nil {
			unlock()
			return nil, nil, fmt.Errorf("failed to get appointment: %w", err)
		}
		if original.ID == uuid.Nil && !current.SameIdentity(original) {
			unlock()
			return nil, nil, apperrors.NewNotFound("appointment", nil)
		}
		if current.PhysicianID == stored.PhysicianID {
			return current, unlock, nil
		}

		unlock()
		if attempt+1 >= maxRelock {
			return nil, nil, fmt.Errorf("appointment %s kept moving between physicians", stored.ID)
		}
		stored = current
	}
}

// lock takes the locks for every distinct physician id in sorted order so two
// moves between the same physicians cannot deadlock.
func (s *Service) lock(ctx context.Context, physicianIDs ...string) (func(), error) {
	ids := make([]string, 0, len(physicianIDs))
	seen := make(map[string]bool, len(physicianIDs))
	for _, id := range physicianIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	start := time.Now()
	unlocks := make([]func(), 0, len(ids))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, id := range ids {
		unlock, err := s.locker.Lock(ctx, id)
		if err != nil {
			release()
			return nil, fmt.Errorf("failed to lock physician %s: %w", id, err)
		}
		unlocks = append(unlocks, unlock)
	}
	if s.metrics != nil {
		s.metrics.LockWait.Observe(time.Since(start).Seconds())
	}
	return release, nil
}

func (s *Service) conflict(physicianID string, at time.Time) error {
	if s.metrics != nil {
		s.metrics.SlotConflicts.Inc()
	}
	s.logger.Debug().
		Str("physician_id", physicianID).
		Time("date_time", at).
		Msg("slot already taken")
	return apperrors.NewConflict(physicianID, at)
}

// notify stores a notification for the physician. Failures are logged only.
func (s *Service) notify(ctx context.Context, apt *model.Appointment, kind, message string) {
	if s.notifSvc == nil {
		return
	}
	_, err := s.notifSvc.Send(ctx, &model.Notification{
		Message:  message,
		Type:     kind,
		UserID:   apt.PhysicianID,
		UserType: model.UserTypePhysician,
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("appointment_id", apt.ID.String()).
			Str("type", kind).
			Msg("failed to store notification")
	}
}
