package model

import (
	"time"
)

// Physician is a bookable clinician. ID is caller-assigned and immutable once
// stored; Email doubles as the login key.
type Physician struct {
	ID           string    `json:"id" validate:"notblank"`
	Name         string    `json:"name" validate:"notblank"`
	Email        string    `json:"email" validate:"basicemail"`
	Password     string    `json:"password,omitempty"`
	PasswordHash string    `json:"-"`
	OfficeID     string    `json:"office_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a copy that shares no state with p.
func (p *Physician) Clone() *Physician {
	c := *p
	return &c
}

// Receptionist is front-desk staff. It is validated like a Physician but owns
// no appointments.
type Receptionist struct {
	ID    string `json:"id" validate:"notblank"`
	Name  string `json:"name" validate:"notblank"`
	Email string `json:"email" validate:"basicemail"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
