// Package cascade removes a physician together with every appointment,
// prescription and referral that depends on it.
package cascade

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/scheduling"
	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
)

// Report lists what a cascade removed.
type Report struct {
	PhysicianID    string                `json:"physician_id"`
	PhysicianFound bool                  `json:"physician_found"`
	Patients       []string              `json:"patients"`
	Appointments   []*model.Appointment  `json:"appointments"`
	Prescriptions  []*model.Prescription `json:"prescriptions"`
	Referrals      []*model.Referral     `json:"referrals"`
}

type Coordinator struct {
	stores  repository.Stores
	locker  scheduling.Locker
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewCoordinator(stores repository.Stores, locker scheduling.Locker, logger zerolog.Logger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		stores:  stores,
		locker:  locker,
		logger:  logger.With().Str("component", "cascade").Logger(),
		metrics: m,
	}
}

// undo restores one deleted record.
type undo struct {
	what string
	fn   func(ctx context.Context) error
}

// DeletePhysician removes children first and the physician last, holding the
// physician's slot lock throughout. Dependents are:
//   - appointments booked with the physician,
//   - prescriptions written by the physician or for any of those patients,
//   - referrals made by, or targeting, the physician, or for those patients.
//
// If any step fails, everything already removed is re-added in reverse order
// and the step's error is returned. When the physician record itself is
// absent its dependents are still removed and a not-found error is returned.
func (c *Coordinator) DeletePhysician(ctx context.Context, physicianID string) (*Report, error) {
	// A blank id would match every record without a physician reference.
	if strings.TrimSpace(physicianID) == "" {
		return nil, apperrors.NewValidation("id", "must not be blank")
	}

	unlock, err := c.locker.Lock(ctx, physicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock physician %s: %w", physicianID, err)
	}
	defer unlock()

	report := &Report{PhysicianID: physicianID}
	var undos []undo

	_, err = c.stores.Physicians.Get(ctx, physicianID)
	switch {
	case err == nil:
		report.PhysicianFound = true
	case apperrors.IsNotFound(err):
	default:
		return nil, fmt.Errorf("failed to get physician: %w", err)
	}

	fail := func(step string, err error) (*Report, error) {
		c.compensate(ctx, physicianID, undos)
		return nil, fmt.Errorf("cascade delete of physician %s failed at %s: %w", physicianID, step, err)
	}

	patients, err := c.deleteAppointments(ctx, physicianID, report, &undos)
	if err != nil {
		return fail("appointments", err)
	}
	report.Patients = patients

	if err := c.deletePrescriptions(ctx, physicianID, patients, report, &undos); err != nil {
		return fail("prescriptions", err)
	}
	if err := c.deleteReferrals(ctx, physicianID, patients, report, &undos); err != nil {
		return fail("referrals", err)
	}

	if report.PhysicianFound {
		if err := c.stores.Physicians.Delete(ctx, physicianID); err != nil && !apperrors.IsNotFound(err) {
			return fail("physician", err)
		}
	}

	c.record(report)
	c.logger.Info().
		Str("physician_id", physicianID).
		Int("appointments", len(report.Appointments)).
		Int("prescriptions", len(report.Prescriptions)).
		Int("referrals", len(report.Referrals)).
		Msg("physician removed")

	if !report.PhysicianFound {
		return report, apperrors.NewNotFound("physician", nil)
	}
	return report, nil
}

func (c *Coordinator) deleteAppointments(ctx context.Context, physicianID string, report *Report, undos *[]undo) ([]string, error) {
	appts, err := c.stores.Appointments.ListByPhysician(ctx, physicianID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var patients []string
	for _, a := range appts {
		if err := c.stores.Appointments.Delete(ctx, a.ID); err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		deleted := a
		*undos = append(*undos, undo{what: "appointment " + a.ID.String(), fn: func(ctx context.Context) error {
			_, err := c.stores.Appointments.Add(ctx, deleted)
			return err
		}})
		report.Appointments = append(report.Appointments, a)

		key := model.NormalizePatientName(a.PatientName)
		if !seen[key] {
			seen[key] = true
			patients = append(patients, a.PatientName)
		}
	}
	return patients, nil
}

func (c *Coordinator) deletePrescriptions(ctx context.Context, physicianID string, patients []string, report *Report, undos *[]undo) error {
	found, err := c.stores.Prescriptions.ListByPhysician(ctx, physicianID)
	if err != nil {
		return err
	}
	for _, patient := range patients {
		more, err := c.stores.Prescriptions.ListByPatient(ctx, patient)
		if err != nil {
			return err
		}
		found = append(found, more...)
	}

	seen := make(map[uuid.UUID]bool)
	for _, p := range found {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if err := c.stores.Prescriptions.Delete(ctx, p.ID); err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return err
		}
		deleted := p
		*undos = append(*undos, undo{what: "prescription " + p.ID.String(), fn: func(ctx context.Context) error {
			_, err := c.stores.Prescriptions.Add(ctx, deleted)
			return err
		}})
		report.Prescriptions = append(report.Prescriptions, p)
	}
	return nil
}

func (c *Coordinator) deleteReferrals(ctx context.Context, physicianID string, patients []string, report *Report, undos *[]undo) error {
	found, err := c.stores.Referrals.ListByPhysician(ctx, physicianID)
	if err != nil {
		return err
	}
	targeting, err := c.stores.Referrals.ListByTarget(ctx, physicianID)
	if err != nil {
		return err
	}
	found = append(found, targeting...)
	for _, patient := range patients {
		more, err := c.stores.Referrals.ListByPatient(ctx, patient)
		if err != nil {
			return err
		}
		found = append(found, more...)
	}

	seen := make(map[uuid.UUID]bool)
	for _, r := range found {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if err := c.stores.Referrals.Delete(ctx, r.ID); err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return err
		}
		deleted := r
		*undos = append(*undos, undo{what: "referral " + r.ID.String(), fn: func(ctx context.Context) error {
			_, err := c.stores.Referrals.Add(ctx, deleted)
			return err
		}})
		report.Referrals = append(report.Referrals, r)
	}
	return nil
}

// compensate replays undos newest first. It keeps going past failures so as
// much as possible is restored.
func (c *Coordinator) compensate(ctx context.Context, physicianID string, undos []undo) {
	if c.metrics != nil {
		c.metrics.CascadeCompensations.Inc()
	}
	ctx = context.WithoutCancel(ctx)
	restored := 0
	for i := len(undos) - 1; i >= 0; i-- {
		if err := undos[i].fn(ctx); err != nil {
			c.logger.Error().
				Err(err).
				Str("physician_id", physicianID).
				Str("record", undos[i].what).
				Msg("failed to restore record during compensation")
			continue
		}
		restored++
	}
	c.logger.Warn().
		Str("physician_id", physicianID).
		Int("restored", restored).
		Int("total", len(undos)).
		Msg("cascade rolled back")
}

func (c *Coordinator) record(r *Report) {
	if c.metrics == nil {
		return
	}
	c.metrics.CascadeDeletes.WithLabelValues("appointment").Add(float64(len(r.Appointments)))
	c.metrics.CascadeDeletes.WithLabelValues("prescription").Add(float64(len(r.Prescriptions)))
	c.metrics.CascadeDeletes.WithLabelValues("referral").Add(float64(len(r.Referrals)))
	if r.PhysicianFound {
		c.metrics.CascadeDeletes.WithLabelValues("physician").Inc()
	}
}
