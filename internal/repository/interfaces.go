package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/model"
)

// All store interfaces in one file. Every implementation honors the same
// contract: List* results are owned snapshots, Update is a full replace that
// returns a not-found AppError without mutating anything when the record is
// absent, and Delete on an absent record returns the same not-found error.
type (
	// PhysicianRepository is keyed by the caller-assigned physician id. Add on
	// an existing id is a no-op that returns the stored record.
	PhysicianRepository interface {
		Add(ctx context.Context, physician *model.Physician) (*model.Physician, error)
		Get(ctx context.Context, id string) (*model.Physician, error)
		GetByEmail(ctx context.Context, email string) (*model.Physician, error)
		List(ctx context.Context) ([]*model.Physician, error)
		Update(ctx context.Context, physician *model.Physician) (*model.Physician, error)
		Delete(ctx context.Context, id string) error
		DeleteAll(ctx context.Context) error
	}

	AppointmentRepository interface {
		Add(ctx context.Context, appointment *model.Appointment) (*model.Appointment, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context) ([]*model.Appointment, error)
		ListByPhysician(ctx context.Context, physicianID string) ([]*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) (*model.Appointment, error)
		Delete(ctx context.Context, id uuid.UUID) error
		DeleteAll(ctx context.Context) error
	}

	PrescriptionRepository interface {
		Add(ctx context.Context, prescription *model.Prescription) (*model.Prescription, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		List(ctx context.Context) ([]*model.Prescription, error)
		ListByPhysician(ctx context.Context, physicianID string) ([]*model.Prescription, error)
		ListByPatient(ctx context.Context, patientName string) ([]*model.Prescription, error)
		Update(ctx context.Context, prescription *model.Prescription) (*model.Prescription, error)
		Delete(ctx context.Context, id uuid.UUID) error
		DeleteAll(ctx context.Context) error
	}

	ReferralRepository interface {
		Add(ctx context.Context, referral *model.Referral) (*model.Referral, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Referral, error)
		List(ctx context.Context) ([]*model.Referral, error)
		ListByPhysician(ctx context.Context, physicianID string) ([]*model.Referral, error)
		ListByTarget(ctx context.Context, physicianID string) ([]*model.Referral, error)
		ListByPatient(ctx context.Context, patientName string) ([]*model.Referral, error)
		Update(ctx context.Context, referral *model.Referral) (*model.Referral, error)
		Delete(ctx context.Context, id uuid.UUID) error
		DeleteAll(ctx context.Context) error
	}

	// MedicationRepository is keyed by (name, dosage).
	MedicationRepository interface {
		Add(ctx context.Context, medication *model.Medication) (*model.Medication, error)
		Get(ctx context.Context, key model.MedicationKey) (*model.Medication, error)
		List(ctx context.Context) ([]*model.Medication, error)
		Update(ctx context.Context, medication *model.Medication) (*model.Medication, error)
		Delete(ctx context.Context, key model.MedicationKey) error
		DeleteAll(ctx context.Context) error
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) (*model.Notification, error)
		ListByUser(ctx context.Context, userID string) ([]*model.Notification, error)
		List(ctx context.Context) ([]*model.Notification, error)
		DeleteAll(ctx context.Context) error
	}
)

// Stores bundles one store per entity kind, all served by the same backend.
type Stores struct {
	Physicians    PhysicianRepository
	Appointments  AppointmentRepository
	Prescriptions PrescriptionRepository
	Referrals     ReferralRepository
	Medications   MedicationRepository
	Notifications NotificationRepository
}
