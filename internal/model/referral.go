package model

import (
	"time"

	"github.com/google/uuid"
)

// Referral sends a patient from PhysicianID to a specialty and, optionally, a
// specific physician.
type Referral struct {
	ID                uuid.UUID `json:"id"`
	PhysicianID       string    `json:"physician_id" validate:"notblank"`
	PatientName       string    `json:"patient_name" validate:"notblank"`
	TargetSpecialty   string    `json:"target_specialty" validate:"notblank"`
	TargetPhysicianID string    `json:"target_physician_id,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	Date              time.Time `json:"date" validate:"required"`
}

func (r *Referral) Clone() *Referral {
	c := *r
	return &c
}
