package model

import (
	"time"

	"github.com/google/uuid"
)

type UserType string

const (
	UserTypePhysician    UserType = "physician"
	UserTypeReceptionist UserType = "receptionist"
)

// Notification is a stored message for a user. Delivery happens elsewhere.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message" validate:"notblank"`
	Type      string    `json:"type,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id" validate:"notblank"`
	UserType  UserType  `json:"user_type" validate:"omitempty,oneof=physician receptionist"`
}

func (n *Notification) Clone() *Notification {
	c := *n
	return &c
}
