package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/model"
)

type prescriptionRow struct {
	ID             string `db:"id"`
	PhysicianID    string `db:"physician_id"`
	PatientName    string `db:"patient_name"`
	PatientKey     string `db:"patient_key"`
	MedicationName string `db:"medication_name"`
	Dosage         string `db:"dosage"`
	Frequency      string `db:"frequency"`
	Notes          string `db:"notes"`
	StartDate      string `db:"start_date"`
	DurationDays   int    `db:"duration_days"`
	Timestamp      string `db:"timestamp"`
}

func (r prescriptionRow) toModel() (*model.Prescription, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	start, err := parseTime(r.StartDate)
	if err != nil {
		return nil, err
	}
	ts, err := parseTime(r.Timestamp)
	if err != nil {
		return nil, err
	}
	return &model.Prescription{
		ID:             id,
		PhysicianID:    r.PhysicianID,
		PatientName:    r.PatientName,
		MedicationName: r.MedicationName,
		Dosage:         r.Dosage,
		Frequency:      r.Frequency,
		Notes:          r.Notes,
		StartDate:      start,
		DurationDays:   r.DurationDays,
		Timestamp:      ts,
	}, nil
}

const prescriptionColumns = `id, physician_id, patient_name, patient_key, medication_name, dosage,
	frequency, notes, start_date, duration_days, timestamp`

func (r *prescriptionRepository) Add(ctx context.Context, prescription *model.Prescription) (*model.Prescription, error) {
	id := prescription.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	ts := prescription.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	query := `
		INSERT INTO prescriptions (` + prescriptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`
	if err := exec(ctx, r.db, "prescription", "create", query,
		id.String(),
		prescription.PhysicianID,
		prescription.PatientName,
		model.NormalizePatientName(prescription.PatientName),
		prescription.MedicationName,
		prescription.Dosage,
		prescription.Frequency,
		prescription.Notes,
		formatTime(prescription.StartDate),
		prescription.DurationDays,
		formatTime(ts),
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	var row prescriptionRow
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = ?`
	if err := getOne(ctx, r.db, "prescription", &row, query, id.String()); err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *prescriptionRepository) List(ctx context.Context) ([]*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions ORDER BY timestamp`
	return selectRows(ctx, r.db, "prescriptions", prescriptionRow.toModel, query)
}

func (r *prescriptionRepository) ListByPhysician(ctx context.Context, physicianID string) ([]*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE physician_id = ? ORDER BY timestamp`
	return selectRows(ctx, r.db, "prescriptions", prescriptionRow.toModel, query, physicianID)
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientName string) ([]*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE patient_key = ? ORDER BY timestamp`
	return selectRows(ctx, r.db, "prescriptions", prescriptionRow.toModel, query, model.NormalizePatientName(patientName))
}

func (r *prescriptionRepository) Update(ctx context.Context, prescription *model.Prescription) (*model.Prescription, error) {
	query := `
		UPDATE prescriptions
		SET physician_id = ?, patient_name = ?, patient_key = ?, medication_name = ?, dosage = ?,
			frequency = ?, notes = ?, start_date = ?, duration_days = ?, timestamp = ?
		WHERE id = ?
	`
	if err := execAffecting(ctx, r.db, "prescription", "update", query,
		prescription.PhysicianID,
		prescription.PatientName,
		model.NormalizePatientName(prescription.PatientName),
		prescription.MedicationName,
		prescription.Dosage,
		prescription.Frequency,
		prescription.Notes,
		formatTime(prescription.StartDate),
		prescription.DurationDays,
		formatTime(prescription.Timestamp),
		prescription.ID.String(),
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, prescription.ID)
}

func (r *prescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffecting(ctx, r.db, "prescription", "delete", `DELETE FROM prescriptions WHERE id = ?`, id.String())
}

func (r *prescriptionRepository) DeleteAll(ctx context.Context) error {
	return exec(ctx, r.db, "prescription", "delete", `DELETE FROM prescriptions`)
}
