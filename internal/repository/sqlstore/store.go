package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

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

type physicianRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db *sqlx.DB
}

type prescriptionRepository struct {
	db *sqlx.DB
}

type referralRepository struct {
	db *sqlx.DB
}

type medicationRepository struct {
	db *sqlx.DB
}

type notificationRepository struct {
	db *sqlx.DB
}

// NewStores builds one adapter per entity kind over the shared connection.
func NewStores(db *sqlx.DB) repository.Stores {
	return repository.Stores{
		Physicians:    &physicianRepository{db: db},
		Appointments:  &appointmentRepository{db: db},
		Prescriptions: &prescriptionRepository{db: db},
		Referrals:     &referralRepository{db: db},
		Medications:   &medicationRepository{db: db},
		Notifications: &notificationRepository{db: db},
	}
}

// getOne runs a single-row query and maps sql.ErrNoRows to not-found.
func getOne(ctx context.Context, db *sqlx.DB, resource string, dest interface{}, query string, args ...interface{}) error {
	err := db.GetContext(ctx, dest, db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", resource, err)
	}
	return nil
}

// execAffecting runs a write and reports not-found when no row matched.
func execAffecting(ctx context.Context, db *sqlx.DB, resource, op, query string, args ...interface{}) error {
	result, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", op, resource, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound(resource, nil)
	}
	return nil
}

func exec(ctx context.Context, db *sqlx.DB, resource, op, query string, args ...interface{}) error {
	if _, err := db.ExecContext(ctx, db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to %s %s: %w", op, resource, err)
	}
	return nil
}

// selectRows scans every matching row and converts it to its model.
func selectRows[R any, M any](ctx context.Context, db *sqlx.DB, resource string, convert func(R) (M, error), query string, args ...interface{}) ([]M, error) {
	var rows []R
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", resource, err)
	}
	out := make([]M, 0, len(rows))
	for _, row := range rows {
		m, err := convert(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
