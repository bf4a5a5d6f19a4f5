// Package validation checks records before they reach a store. Every failure
// is an AppError with code ErrValidation naming the offending field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-core/internal/model"
	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*Validator)

// WithClock sets the clock used for date rules.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

func New(opts ...Option) *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for reserved tag names.
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("basicemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})

	v := &Validator{validate: validate, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateAppointment requires a physician, a patient and a date-time. Dates
// in the past are accepted.
func (v *Validator) ValidateAppointment(a *model.Appointment) error {
	if a == nil {
		return apperrors.NewValidation("appointment", "is required")
	}
	return v.check(a)
}

func (v *Validator) ValidatePhysician(p *model.Physician) error {
	if p == nil {
		return apperrors.NewValidation("physician", "is required")
	}
	return v.check(p)
}

func (v *Validator) ValidateReceptionist(r *model.Receptionist) error {
	if r == nil {
		return apperrors.NewValidation("receptionist", "is required")
	}
	return v.check(r)
}

// ValidatePrescription also requires the start date to be today or later.
func (v *Validator) ValidatePrescription(p *model.Prescription) error {
	if p == nil {
		return apperrors.NewValidation("prescription", "is required")
	}
	if err := v.check(p); err != nil {
		return err
	}
	now := v.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if p.StartDate.Before(today) {
		return apperrors.NewValidation("start_date", "must be today or later")
	}
	return nil
}

func (v *Validator) ValidateReferral(r *model.Referral) error {
	if r == nil {
		return apperrors.NewValidation("referral", "is required")
	}
	return v.check(r)
}

func (v *Validator) ValidateMedication(m *model.Medication) error {
	if m == nil {
		return apperrors.NewValidation("medication", "is required")
	}
	return v.check(m)
}

func (v *Validator) ValidateNotification(n *model.Notification) error {
	if n == nil {
		return apperrors.NewValidation("notification", "is required")
	}
	return v.check(n)
}

func (v *Validator) check(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidation(fe.Field(), reason(fe))
	}
	return apperrors.NewInternal(err)
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "must not be blank"
	case "required":
		return "is required"
	case "basicemail":
		return "must be a valid email address"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
