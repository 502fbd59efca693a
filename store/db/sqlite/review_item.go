package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/fayaz1010/Iqra/store"
)

func (d *DB) UpsertReviewItem(ctx context.Context, upsert *store.ReviewItem) (*store.ReviewItem, error) {
	fields := []string{
		"user_id", "uid", "type", "content", "level",
		"last_reviewed_ms", "next_review_ms", "interval_ms", "ease_factor", "consecutive_correct",
	}
	args := []any{
		upsert.UserID, upsert.UID, upsert.Type, upsert.Content, upsert.Level,
		upsert.LastReviewedMs, upsert.NextReviewMs, upsert.IntervalMs, upsert.EaseFactor, upsert.ConsecutiveCorrect,
	}

	stmt := `INSERT INTO review_item (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT(user_id, uid) DO UPDATE SET
			type = EXCLUDED.type,
			content = EXCLUDED.content,
			level = EXCLUDED.level,
			last_reviewed_ms = EXCLUDED.last_reviewed_ms,
			next_review_ms = EXCLUDED.next_review_ms,
			interval_ms = EXCLUDED.interval_ms,
			ease_factor = EXCLUDED.ease_factor,
			consecutive_correct = EXCLUDED.consecutive_correct,
			updated_ts = (strftime('%s', 'now'))
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&upsert.ID,
		&upsert.CreatedTs,
		&upsert.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert review item: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListReviewItems(ctx context.Context, find *store.FindReviewItem) ([]*store.ReviewItem, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Type; v != nil {
		where, args = append(where, "type = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.MaxLevel; v != nil {
		where, args = append(where, "level <= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DueBeforeMs; v != nil {
		where, args = append(where, "next_review_ms <= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, user_id, uid, type, content, level,
			last_reviewed_ms, next_review_ms, interval_ms, ease_factor, consecutive_correct,
			created_ts, updated_ts
		FROM review_item
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY next_review_ms ASC, id ASC` + limitOffset(find.Limit, find.Offset)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query review items: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ReviewItem, 0)
	for rows.Next() {
		var item store.ReviewItem
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.UID,
			&item.Type,
			&item.Content,
			&item.Level,
			&item.LastReviewedMs,
			&item.NextReviewMs,
			&item.IntervalMs,
			&item.EaseFactor,
			&item.ConsecutiveCorrect,
			&item.CreatedTs,
			&item.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review item: %w", err)
		}
		list = append(list, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review items: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteReviewItem(ctx context.Context, delete *store.DeleteReviewItem) error {
	stmt := `DELETE FROM review_item WHERE user_id = ` + placeholder(1) + ` AND uid = ` + placeholder(2)
	result, err := d.db.ExecContext(ctx, stmt, delete.UserID, delete.UID)
	if err != nil {
		return fmt.Errorf("failed to delete review item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("review item not found")
	}
	return nil
}
