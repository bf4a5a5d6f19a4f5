package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// No foreign keys: cross-store integrity is the cascade coordinator's job.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS physicians (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		password   TEXT NOT NULL DEFAULT '',
		office_id  TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_physicians_email ON physicians (email)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id           TEXT PRIMARY KEY,
		physician_id TEXT NOT NULL,
		patient_name TEXT NOT NULL,
		patient_key  TEXT NOT NULL,
		date_time    TEXT NOT NULL,
		notes        TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_physician ON appointments (physician_id, date_time)`,
	`CREATE TABLE IF NOT EXISTS prescriptions (
		id              TEXT PRIMARY KEY,
		physician_id    TEXT NOT NULL,
		patient_name    TEXT NOT NULL,
		patient_key     TEXT NOT NULL,
		medication_name TEXT NOT NULL,
		dosage          TEXT NOT NULL,
		frequency       TEXT NOT NULL DEFAULT '',
		notes           TEXT NOT NULL DEFAULT '',
		start_date      TEXT NOT NULL,
		duration_days   INTEGER NOT NULL,
		timestamp       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prescriptions_physician ON prescriptions (physician_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prescriptions_patient ON prescriptions (patient_key)`,
	`CREATE TABLE IF NOT EXISTS referrals (
		id                  TEXT PRIMARY KEY,
		physician_id        TEXT NOT NULL,
		patient_name        TEXT NOT NULL,
		patient_key         TEXT NOT NULL,
		target_specialty    TEXT NOT NULL,
		target_physician_id TEXT NOT NULL DEFAULT '',
		reason              TEXT NOT NULL DEFAULT '',
		referral_date       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_referrals_physician ON referrals (physician_id)`,
	`CREATE INDEX IF NOT EXISTS idx_referrals_target ON referrals (target_physician_id)`,
	`CREATE TABLE IF NOT EXISTS medications (
		name              TEXT NOT NULL,
		dosage            TEXT NOT NULL,
		default_frequency TEXT NOT NULL DEFAULT '',
		default_notes     TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (name, dosage)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id        TEXT PRIMARY KEY,
		message   TEXT NOT NULL,
		type      TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL,
		user_id   TEXT NOT NULL,
		user_type TEXT NOT NULL DEFAULT ''
	)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
