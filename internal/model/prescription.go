package model

import (
	"time"

	"github.com/google/uuid"
)

// Prescription is logically owned by the (physician id, patient name) pair.
type Prescription struct {
	ID             uuid.UUID `json:"id"`
	PhysicianID    string    `json:"physician_id" validate:"notblank"`
	PatientName    string    `json:"patient_name" validate:"notblank"`
	MedicationName string    `json:"medication_name" validate:"notblank"`
	Dosage         string    `json:"dosage" validate:"notblank"`
	Frequency      string    `json:"frequency,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	DurationDays   int       `json:"duration_days" validate:"gt=0"`
	Timestamp      time.Time `json:"timestamp"`
}

func (p *Prescription) Clone() *Prescription {
	c := *p
	return &c
}
