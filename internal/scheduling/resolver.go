// Package scheduling enforces that a physician is never booked twice for the
// same instant.
package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
)

// Resolver answers slot questions against the appointment store. Callers
// that act on the answer must hold the physician's lock from a Locker for
// the whole check-then-write.
type Resolver struct {
	appointments repository.AppointmentRepository
}

func NewResolver(appointments repository.AppointmentRepository) *Resolver {
	return &Resolver{appointments: appointments}
}

// IsSlotAvailable reports whether physicianID has no appointment at exactly at.
func (r *Resolver) IsSlotAvailable(ctx context.Context, physicianID string, at time.Time) (bool, error) {
	return r.IsSlotAvailableForUpdate(ctx, physicianID, at, nil)
}

// IsSlotAvailableForUpdate is IsSlotAvailable ignoring the stored record that
// excluding identifies, so re-saving an unchanged appointment does not
// collide with itself.
func (r *Resolver) IsSlotAvailableForUpdate(ctx context.Context, physicianID string, at time.Time, excluding *model.Appointment) (bool, error) {
	existing, err := r.appointments.ListByPhysician(ctx, physicianID)
	if err != nil {
		return false, fmt.Errorf("failed to list appointments: %w", err)
	}
	for _, a := range existing {
		if excluding != nil && a.Matches(excluding) {
			continue
		}
		if a.DateTime.Equal(at) {
			return false, nil
		}
	}
	return true, nil
}
