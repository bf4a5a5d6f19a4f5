package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-core/internal/model"
)

type physicianRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Password  string `db:"password"`
	OfficeID  string `db:"office_id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r physicianRow) toModel() (*model.Physician, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &model.Physician{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.Password,
		OfficeID:     r.OfficeID,
		CreatedAt:    created,
		UpdatedAt:    updated,
	}, nil
}

const physicianColumns = `id, name, email, password, office_id, created_at, updated_at`

func (r *physicianRepository) Add(ctx context.Context, physician *model.Physician) (*model.Physician, error) {
	now := formatTime(time.Now())
	query := `
		INSERT INTO physicians (` + physicianColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`
	if err := exec(ctx, r.db, "physician", "create", query,
		physician.ID,
		physician.Name,
		physician.Email,
		physician.PasswordHash,
		physician.OfficeID,
		now,
		now,
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, physician.ID)
}

func (r *physicianRepository) Get(ctx context.Context, id string) (*model.Physician, error) {
	var row physicianRow
	query := `SELECT ` + physicianColumns + ` FROM physicians WHERE id = ?`
	if err := getOne(ctx, r.db, "physician", &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *physicianRepository) GetByEmail(ctx context.Context, email string) (*model.Physician, error) {
	var row physicianRow
	query := `SELECT ` + physicianColumns + ` FROM physicians WHERE LOWER(email) = ? ORDER BY created_at LIMIT 1`
	if err := getOne(ctx, r.db, "physician", &row, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *physicianRepository) List(ctx context.Context) ([]*model.Physician, error) {
	query := `SELECT ` + physicianColumns + ` FROM physicians ORDER BY created_at, id`
	return selectRows(ctx, r.db, "physicians", physicianRow.toModel, query)
}

func (r *physicianRepository) Update(ctx context.Context, physician *model.Physician) (*model.Physician, error) {
	query := `
		UPDATE physicians
		SET name = ?, email = ?, password = ?, office_id = ?, updated_at = ?
		WHERE id = ?
	`
	if err := execAffecting(ctx, r.db, "physician", "update", query,
		physician.Name,
		physician.Email,
		physician.PasswordHash,
		physician.OfficeID,
		formatTime(time.Now()),
		physician.ID,
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, physician.ID)
}

func (r *physicianRepository) Delete(ctx context.Context, id string) error {
	return execAffecting(ctx, r.db, "physician", "delete", `DELETE FROM physicians WHERE id = ?`, id)
}

func (r *physicianRepository) DeleteAll(ctx context.Context) error {
	return exec(ctx, r.db, "physician", "delete", `DELETE FROM physicians`)
}
