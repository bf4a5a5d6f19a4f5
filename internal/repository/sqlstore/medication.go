package sqlstore

import (
	"context"

	"github.com/jwalitptl/clinic-core/internal/model"
)

type medicationRow struct {
	Name             string `db:"name"`
	Dosage           string `db:"dosage"`
	DefaultFrequency string `db:"default_frequency"`
	DefaultNotes     string `db:"default_notes"`
}

func (r medicationRow) toModel() (*model.Medication, error) {
	return &model.Medication{
		Name:             r.Name,
		Dosage:           r.Dosage,
		DefaultFrequency: r.DefaultFrequency,
		DefaultNotes:     r.DefaultNotes,
	}, nil
}

const medicationColumns = `name, dosage, default_frequency, default_notes`

func (r *medicationRepository) Add(ctx context.Context, medication *model.Medication) (*model.Medication, error) {
	query := `
		INSERT INTO medications (` + medicationColumns + `)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name, dosage) DO NOTHING
	`
	if err := exec(ctx, r.db, "medication", "create", query,
		medication.Name,
		medication.Dosage,
		medication.DefaultFrequency,
		medication.DefaultNotes,
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, medication.Key())
}

func (r *medicationRepository) Get(ctx context.Context, key model.MedicationKey) (*model.Medication, error) {
	var row medicationRow
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE name = ? AND dosage = ?`
	if err := getOne(ctx, r.db, "medication", &row, query, key.Name, key.Dosage); err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *medicationRepository) List(ctx context.Context) ([]*model.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications ORDER BY name, dosage`
	return selectRows(ctx, r.db, "medications", medicationRow.toModel, query)
}

func (r *medicationRepository) Update(ctx context.Context, medication *model.Medication) (*model.Medication, error) {
	query := `
		UPDATE medications
		SET default_frequency = ?, default_notes = ?
		WHERE name = ? AND dosage = ?
	`
	if err := execAffecting(ctx, r.db, "medication", "update", query,
		medication.DefaultFrequency,
		medication.DefaultNotes,
		medication.Name,
		medication.Dosage,
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, medication.Key())
}

func (r *medicationRepository) Delete(ctx context.Context, key model.MedicationKey) error {
	query := `DELETE FROM medications WHERE name = ? AND dosage = ?`
	return execAffecting(ctx, r.db, "medication", "delete", query, key.Name, key.Dosage)
}

func (r *medicationRepository) DeleteAll(ctx context.Context) error {
	return exec(ctx, r.db, "medication", "delete", `DELETE FROM medications`)
}
