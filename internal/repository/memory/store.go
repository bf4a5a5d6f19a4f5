// Package memory provides the in-memory stores used for tests, for the
// in_memory backend kind and as the fallback when the durable backend cannot
// be initialized.
package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
)

var (
	_ repository.PhysicianRepository    = (*physicianRepository)(nil)
	_ repository.AppointmentRepository  = (*appointmentRepository)(nil)
	_ repository.PrescriptionRepository = (*prescriptionRepository)(nil)
	_ repository.ReferralRepository     = (*referralRepository)(nil)
	_ repository.MedicationRepository   = (*medicationRepository)(nil)
	_ repository.NotificationRepository = (*notificationRepository)(nil)
)

// NewStores returns a fresh, empty set of in-memory stores.
func NewStores() repository.Stores {
	return repository.Stores{
		Physicians:    NewPhysicianRepository(),
		Appointments:  NewAppointmentRepository(),
		Prescriptions: NewPrescriptionRepository(),
		Referrals:     NewReferralRepository(),
		Medications:   NewMedicationRepository(),
		Notifications: NewNotificationRepository(),
	}
}

type physicianRepository struct {
	rows *table[string, *model.Physician]
}

type appointmentRepository struct {
	rows *table[uuid.UUID, *model.Appointment]
}

type prescriptionRepository struct {
	rows *table[uuid.UUID, *model.Prescription]
}

type referralRepository struct {
	rows *table[uuid.UUID, *model.Referral]
}

type medicationRepository struct {
	rows *table[model.MedicationKey, *model.Medication]
}

type notificationRepository struct {
	rows *table[uuid.UUID, *model.Notification]
}

func NewPhysicianRepository() repository.PhysicianRepository {
	return &physicianRepository{rows: newTable[string]((*model.Physician).Clone)}
}

func NewAppointmentRepository() repository.AppointmentRepository {
	return &appointmentRepository{rows: newTable[uuid.UUID]((*model.Appointment).Clone)}
}

func NewPrescriptionRepository() repository.PrescriptionRepository {
	return &prescriptionRepository{rows: newTable[uuid.UUID]((*model.Prescription).Clone)}
}

func NewReferralRepository() repository.ReferralRepository {
	return &referralRepository{rows: newTable[uuid.UUID]((*model.Referral).Clone)}
}

func NewMedicationRepository() repository.MedicationRepository {
	return &medicationRepository{rows: newTable[model.MedicationKey]((*model.Medication).Clone)}
}

func NewNotificationRepository() repository.NotificationRepository {
	return &notificationRepository{rows: newTable[uuid.UUID]((*model.Notification).Clone)}
}

// Physicians

func (r *physicianRepository) Add(_ context.Context, physician *model.Physician) (*model.Physician, error) {
	p := physician.Clone()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	stored, _ := r.rows.insert(p.ID, p)
	return stored, nil
}

func (r *physicianRepository) Get(_ context.Context, id string) (*model.Physician, error) {
	p, ok := r.rows.get(id)
	if !ok {
		return nil, apperrors.NewNotFound("physician", nil)
	}
	return p, nil
}

func (r *physicianRepository) GetByEmail(_ context.Context, email string) (*model.Physician, error) {
	p, ok := r.rows.find(func(p *model.Physician) bool {
		return strings.EqualFold(p.Email, strings.TrimSpace(email))
	})
	if !ok {
		return nil, apperrors.NewNotFound("physician", nil)
	}
	return p, nil
}

func (r *physicianRepository) List(_ context.Context) ([]*model.Physician, error) {
	return r.rows.filter(nil), nil
}

func (r *physicianRepository) Update(_ context.Context, physician *model.Physician) (*model.Physician, error) {
	existing, ok := r.rows.get(physician.ID)
	if !ok {
		return nil, apperrors.NewNotFound("physician", nil)
	}
	p := physician.Clone()
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	stored, ok := r.rows.replace(p.ID, p)
	if !ok {
		return nil, apperrors.NewNotFound("physician", nil)
	}
	return stored, nil
}

func (r *physicianRepository) Delete(_ context.Context, id string) error {
	if !r.rows.remove(id) {
		return apperrors.NewNotFound("physician", nil)
	}
	return nil
}

func (r *physicianRepository) DeleteAll(_ context.Context) error {
	r.rows.clear()
	return nil
}

// Appointments

func (r *appointmentRepository) Add(_ context.Context, appointment *model.Appointment) (*model.Appointment, error) {
	a := appointment.Clone()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	stored, _ := r.rows.insert(a.ID, a)
	return stored, nil
}

func (r *appointmentRepository) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.rows.get(id)
	if !ok {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	return a, nil
}

func (r *appointmentRepository) List(_ context.Context) ([]*model.Appointment, error) {
	return r.rows.filter(nil), nil
}

func (r *appointmentRepository) ListByPhysician(_ context.Context, physicianID string) ([]*model.Appointment, error) {
	return r.rows.filter(func(a *model.Appointment) bool { return a.PhysicianID == physicianID }), nil
}

func (r *appointmentRepository) Update(_ context.Context, appointment *model.Appointment) (*model.Appointment, error) {
	existing, ok := r.rows.get(appointment.ID)
	if !ok {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	a := appointment.Clone()
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now()
	stored, ok := r.rows.replace(a.ID, a)
	if !ok {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	return stored, nil
}

func (r *appointmentRepository) Delete(_ context.Context, id uuid.UUID) error {
	if !r.rows.remove(id) {
		return apperrors.NewNotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) DeleteAll(_ context.Context) error {
	r.rows.clear()
	return nil
}

// Prescriptions

func (r *prescriptionRepository) Add(_ context.Context, prescription *model.Prescription) (*model.Prescription, error) {
	p := prescription.Clone()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	stored, _ := r.rows.insert(p.ID, p)
	return stored, nil
}

func (r *prescriptionRepository) Get(_ context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, ok := r.rows.get(id)
	if !ok {
		return nil, apperrors.NewNotFound("prescription", nil)
	}
	return p, nil
}

func (r *prescriptionRepository) List(_ context.Context) ([]*model.Prescription, error) {
	return r.rows.filter(nil), nil
}

func (r *prescriptionRepository) ListByPhysician(_ context.Context, physicianID string) ([]*model.Prescription, error) {
	return r.rows.filter(func(p *model.Prescription) bool { return p.PhysicianID == physicianID }), nil
}

func (r *prescriptionRepository) ListByPatient(_ context.Context, patientName string) ([]*model.Prescription, error) {
	return r.rows.filter(func(p *model.Prescription) bool { return model.SamePatient(p.PatientName, patientName) }), nil
}

func (r *prescriptionRepository) Update(_ context.Context, prescription *model.Prescription) (*model.Prescription, error) {
	stored, ok := r.rows.replace(prescription.ID, prescription)
	if !ok {
		return nil, apperrors.NewNotFound("prescription", nil)
	}
	return stored, nil
}

func (r *prescriptionRepository) Delete(_ context.Context, id uuid.UUID) error {
	if !r.rows.remove(id) {
		return apperrors.NewNotFound("prescription", nil)
	}
	return nil
}

func (r *prescriptionRepository) DeleteAll(_ context.Context) error {
	r.rows.clear()
	return nil
}

// Referrals

func (r *referralRepository) Add(_ context.Context, referral *model.Referral) (*model.Referral, error) {
	ref := referral.Clone()
	if ref.ID == uuid.Nil {
		ref.ID = uuid.New()
	}
	stored, _ := r.rows.insert(ref.ID, ref)
	return stored, nil
}

func (r *referralRepository) Get(_ context.Context, id uuid.UUID) (*model.Referral, error) {
	ref, ok := r.rows.get(id)
	if !ok {
		return nil, apperrors.NewNotFound("referral", nil)
	}
	return ref, nil
}

func (r *referralRepository) List(_ context.Context) ([]*model.Referral, error) {
	return r.rows.filter(nil), nil
}

func (r *referralRepository) ListByPhysician(_ context.Context, physicianID string) ([]*model.Referral, error) {
	return r.rows.filter(func(ref *model.Referral) bool { return ref.PhysicianID == physicianID }), nil
}

// ListByTarget is empty for a blank id; untargeted referrals have no target.
func (r *referralRepository) ListByTarget(_ context.Context, physicianID string) ([]*model.Referral, error) {
	if strings.TrimSpace(physicianID) == "" {
		return []*model.Referral{}, nil
	}
	return r.rows.filter(func(ref *model.Referral) bool { return ref.TargetPhysicianID == physicianID }), nil
}

func (r *referralRepository) ListByPatient(_ context.Context, patientName string) ([]*model.Referral, error) {
	return r.rows.filter(func(ref *model.Referral) bool { return model.SamePatient(ref.PatientName, patientName) }), nil
}

func (r *referralRepository) Update(_ context.Context, referral *model.Referral) (*model.Referral, error) {
	stored, ok := r.rows.replace(referral.ID, referral)
	if !ok {
		return nil, apperrors.NewNotFound("referral", nil)
	}
	return stored, nil
}

func (r *referralRepository) Delete(_ context.Context, id uuid.UUID) error {
	if !r.rows.remove(id) {
		return apperrors.NewNotFound("referral", nil)
	}
	return nil
}

func (r *referralRepository) DeleteAll(_ context.Context) error {
	r.rows.clear()
	return nil
}

// Medications

func (r *medicationRepository) Add(_ context.Context, medication *model.Medication) (*model.Medication, error) {
	stored, _ := r.rows.insert(medication.Key(), medication)
	return stored, nil
}

func (r *medicationRepository) Get(_ context.Context, key model.MedicationKey) (*model.Medication, error) {
	m, ok := r.rows.get(key)
	if !ok {
		return nil, apperrors.NewNotFound("medication", nil)
	}
	return m, nil
}

func (r *medicationRepository) List(_ context.Context) ([]*model.Medication, error) {
	return r.rows.filter(nil), nil
}

func (r *medicationRepository) Update(_ context.Context, medication *model.Medication) (*model.Medication, error) {
	stored, ok := r.rows.replace(medication.Key(), medication)
	if !ok {
		return nil, apperrors.NewNotFound("medication", nil)
	}
	return stored, nil
}

func (r *medicationRepository) Delete(_ context.Context, key model.MedicationKey) error {
	if !r.rows.remove(key) {
		return apperrors.NewNotFound("medication", nil)
	}
	return nil
}

func (r *medicationRepository) DeleteAll(_ context.Context) error {
	r.rows.clear()
	return nil
}

// Notifications

func (r *notificationRepository) Create(_ context.Context, notification *model.Notification) (*model.Notification, error) {
	n := notification.Clone()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	stored, _ := r.rows.insert(n.ID, n)
	return stored, nil
}

func (r *notificationRepository) ListByUser(_ context.Context, userID string) ([]*model.Notification, error) {
	return r.rows.filter(func(n *model.Notification) bool { return n.UserID == userID }), nil
}

func (r *notificationRepository) List(_ context.Context) ([]*model.Notification, error) {
	return r.rows.filter(nil), nil
}

func (r *notificationRepository) DeleteAll(_ context.Context) error {
	r.rows.clear()
	return nil
}
