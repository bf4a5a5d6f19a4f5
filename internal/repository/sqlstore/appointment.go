package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/model"
)

type appointmentRow struct {
	ID          string `db:"id"`
	PhysicianID string `db:"physician_id"`
	PatientName string `db:"patient_name"`
	PatientKey  string `db:"patient_key"`
	DateTime    string `db:"date_time"`
	Notes       string `db:"notes"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r appointmentRow) toModel() (*model.Appointment, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	at, err := parseTime(r.DateTime)
	if err != nil {
		return nil, err
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &model.Appointment{
		ID:          id,
		PhysicianID: r.PhysicianID,
		PatientName: r.PatientName,
		DateTime:    at,
		Notes:       r.Notes,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

const appointmentColumns = `id, physician_id, patient_name, patient_key, date_time, notes, created_at, updated_at`

func (r *appointmentRepository) Add(ctx context.Context, appointment *model.Appointment) (*model.Appointment, error) {
	id := appointment.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := formatTime(time.Now())
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`
	if err := exec(ctx, r.db, "appointment", "create", query,
		id.String(),
		appointment.PhysicianID,
		appointment.PatientName,
		model.NormalizePatientName(appointment.PatientName),
		formatTime(appointment.DateTime),
		appointment.Notes,
		now,
		now,
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var row appointmentRow
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	if err := getOne(ctx, r.db, "appointment", &row, query, id.String()); err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *appointmentRepository) List(ctx context.Context) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY date_time, created_at`
	return selectRows(ctx, r.db, "appointments", appointmentRow.toModel, query)
}

func (r *appointmentRepository) ListByPhysician(ctx context.Context, physicianID string) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE physician_id = ? ORDER BY date_time, created_at`
	return selectRows(ctx, r.db, "appointments", appointmentRow.toModel, query, physicianID)
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) (*model.Appointment, error) {
	query := `
		UPDATE appointments
		SET physician_id = ?, patient_name = ?, patient_key = ?, date_time = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`
	if err := execAffecting(ctx, r.db, "appointment", "update", query,
		appointment.PhysicianID,
		appointment.PatientName,
		model.NormalizePatientName(appointment.PatientName),
		formatTime(appointment.DateTime),
		appointment.Notes,
		formatTime(time.Now()),
		appointment.ID.String(),
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, appointment.ID)
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffecting(ctx, r.db, "appointment", "delete", `DELETE FROM appointments WHERE id = ?`, id.String())
}

func (r *appointmentRepository) DeleteAll(ctx context.Context) error {
	return exec(ctx, r.db, "appointment", "delete", `DELETE FROM appointments`)
}
