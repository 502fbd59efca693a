package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/fayaz1010/Iqra/store"
)

func (d *DB) CreateNotification(ctx context.Context, create *store.Notification) (*store.Notification, error) {
	payload := create.Payload
	if payload == "" {
		payload = "{}"
	}
	stmt := `
		INSERT INTO notification (uid, user_id, type, title, message, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, is_read, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.UserID, create.Type, create.Title, create.Message, payload,
	).Scan(&create.ID, &create.Read, &create.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create notification")
	}
	create.Payload = payload
	return create, nil
}

func (d *DB) ListNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	if find.UnreadOnly {
		where = append(where, "is_read = 0")
	}

	query := `
		SELECT id, uid, user_id, type, title, message, payload, is_read, created_ts
		FROM notification
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC` + limitOffset(find.Limit, nil)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query notifications")
	}
	defer rows.Close()

	list := []*store.Notification{}
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Payload,
			&n.Read,
			&n.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		list = append(list, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateNotification(ctx context.Context, update *store.UpdateNotification) (*store.Notification, error) {
	set, args := []string{}, []any{}
	if v := update.Read; v != nil {
		set, args = append(set, "is_read = ?"), append(args, *v)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `UPDATE notification SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update notification")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, fmt.Errorf("notification %d not found", update.ID)
	}

	list, err := d.ListNotifications(ctx, &store.FindNotification{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("notification %d not found", update.ID)
	}
	return list[0], nil
}
