package sqlstore

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/model"
)

type referralRow struct {
	ID                string `db:"id"`
	PhysicianID       string `db:"physician_id"`
	PatientName       string `db:"patient_name"`
	PatientKey        string `db:"patient_key"`
	TargetSpecialty   string `db:"target_specialty"`
	TargetPhysicianID string `db:"target_physician_id"`
	Reason            string `db:"reason"`
	Date              string `db:"referral_date"`
}

func (r referralRow) toModel() (*model.Referral, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	date, err := parseTime(r.Date)
	if err != nil {
		return nil, err
	}
	return &model.Referral{
		ID:                id,
		PhysicianID:       r.PhysicianID,
		PatientName:       r.PatientName,
		TargetSpecialty:   r.TargetSpecialty,
		TargetPhysicianID: r.TargetPhysicianID,
		Reason:            r.Reason,
		Date:              date,
	}, nil
}

const referralColumns = `id, physician_id, patient_name, patient_key, target_specialty,
	target_physician_id, reason, referral_date`

func (r *referralRepository) Add(ctx context.Context, referral *model.Referral) (*model.Referral, error) {
	id := referral.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	query := `
		INSERT INTO referrals (` + referralColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`
	if err := exec(ctx, r.db, "referral", "create", query,
		id.String(),
		referral.PhysicianID,
		referral.PatientName,
		model.NormalizePatientName(referral.PatientName),
		referral.TargetSpecialty,
		referral.TargetPhysicianID,
		referral.Reason,
		formatTime(referral.Date),
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *referralRepository) Get(ctx context.Context, id uuid.UUID) (*model.Referral, error) {
	var row referralRow
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE id = ?`
	if err := getOne(ctx, r.db, "referral", &row, query, id.String()); err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *referralRepository) List(ctx context.Context) ([]*model.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals ORDER BY referral_date`
	return selectRows(ctx, r.db, "referrals", referralRow.toModel, query)
}

func (r *referralRepository) ListByPhysician(ctx context.Context, physicianID string) ([]*model.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE physician_id = ? ORDER BY referral_date`
	return selectRows(ctx, r.db, "referrals", referralRow.toModel, query, physicianID)
}

// ListByTarget is empty for a blank id; untargeted referrals store an empty
// target_physician_id.
func (r *referralRepository) ListByTarget(ctx context.Context, physicianID string) ([]*model.Referral, error) {
	if strings.TrimSpace(physicianID) == "" {
		return []*model.Referral{}, nil
	}
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE target_physician_id = ? ORDER BY referral_date`
	return selectRows(ctx, r.db, "referrals", referralRow.toModel, query, physicianID)
}

func (r *referralRepository) ListByPatient(ctx context.Context, patientName string) ([]*model.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE patient_key = ? ORDER BY referral_date`
	return selectRows(ctx, r.db, "referrals", referralRow.toModel, query, model.NormalizePatientName(patientName))
}

func (r *referralRepository) Update(ctx context.Context, referral *model.Referral) (*model.Referral, error) {
	query := `
		UPDATE referrals
		SET physician_id = ?, patient_name = ?, patient_key = ?, target_specialty = ?,
			target_physician_id = ?, reason = ?, referral_date = ?
		WHERE id = ?
	`
	if err := execAffecting(ctx, r.db, "referral", "update", query,
		referral.PhysicianID,
		referral.PatientName,
		model.NormalizePatientName(referral.PatientName),
		referral.TargetSpecialty,
		referral.TargetPhysicianID,
		referral.Reason,
		formatTime(referral.Date),
		referral.ID.String(),
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, referral.ID)
}

func (r *referralRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffecting(ctx, r.db, "referral", "delete", `DELETE FROM referrals WHERE id = ?`, id.String())
}

func (r *referralRepository) DeleteAll(ctx context.Context) error {
	return exec(ctx, r.db, "referral", "delete", `DELETE FROM referrals`)
}
