package model

import (
	"time"

	"github.com/google/uuid"
)

// Appointment books a patient into a physician's slot. A slot is a single
// instant: two appointments conflict only when their DateTime values are equal.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	PhysicianID string    `json:"physician_id" validate:"notblank"`
	PatientName string    `json:"patient_name" validate:"notblank"`
	DateTime    time.Time `json:"date_time" validate:"required"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a *Appointment) Clone() *Appointment {
	c := *a
	return &c
}

// SameIdentity reports whether a and other share the composite identity
// (physician id, patient name, date-time).
func (a *Appointment) SameIdentity(other *Appointment) bool {
	if a == nil || other == nil {
		return false
	}
	return a.PhysicianID == other.PhysicianID &&
		SamePatient(a.PatientName, other.PatientName) &&
		a.DateTime.Equal(other.DateTime)
}

// Matches identifies the stored record an original refers to: by surrogate
// id when the original carries one, otherwise by composite identity.
func (a *Appointment) Matches(original *Appointment) bool {
	if original == nil {
		return false
	}
	if original.ID != uuid.Nil {
		return a.ID == original.ID
	}
	return a.SameIdentity(original)
}

type UpdateAppointmentRequest struct {
	Original Appointment `json:"original"`
	Updated  Appointment `json:"updated"`
}
