package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/model"
)

type notificationRow struct {
	ID        string `db:"id"`
	Message   string `db:"message"`
	Type      string `db:"type"`
	Timestamp string `db:"timestamp"`
	UserID    string `db:"user_id"`
	UserType  string `db:"user_type"`
}

func (r notificationRow) toModel() (*model.Notification, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	ts, err := parseTime(r.Timestamp)
	if err != nil {
		return nil, err
	}
	return &model.Notification{
		ID:        id,
		Message:   r.Message,
		Type:      r.Type,
		Timestamp: ts,
		UserID:    r.UserID,
		UserType:  model.UserType(r.UserType),
	}, nil
}

const notificationColumns = `id, message, type, timestamp, user_id, user_type`

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) (*model.Notification, error) {
	n := notification.Clone()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`
	if err := exec(ctx, r.db, "notification", "create", query,
		n.ID.String(),
		n.Message,
		n.Type,
		formatTime(n.Timestamp),
		n.UserID,
		string(n.UserType),
	); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ? ORDER BY timestamp`
	return selectRows(ctx, r.db, "notifications", notificationRow.toModel, query, userID)
}

func (r *notificationRepository) List(ctx context.Context) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications ORDER BY timestamp`
	return selectRows(ctx, r.db, "notifications", notificationRow.toModel, query)
}

func (r *notificationRepository) DeleteAll(ctx context.Context) error {
	return exec(ctx, r.db, "notification", "delete", `DELETE FROM notifications`)
}
