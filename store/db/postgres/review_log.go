package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/fayaz1010/Iqra/store"
)

func (d *DB) CreateReviewLog(ctx context.Context, create *store.ReviewLog) (*store.ReviewLog, error) {
	fields := []string{"user_id", "item_uid", "quality", "points", "interval_ms", "ease_factor"}
	args := []any{create.UserID, create.ItemUID, create.Quality, create.Points, create.IntervalMs, create.EaseFactor}
	if create.ReviewedTs != 0 {
		fields = append(fields, "reviewed_ts")
		args = append(args, create.ReviewedTs)
	}

	stmt := `INSERT INTO review_log (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, reviewed_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID, &create.ReviewedTs); err != nil {
		return nil, fmt.Errorf("failed to create review log: %w", err)
	}
	return create, nil
}

func (d *DB) ListReviewLogs(ctx context.Context, find *store.FindReviewLog) ([]*store.ReviewLog, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ItemUID; v != nil {
		where, args = append(where, "item_uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.SinceTs; v != nil {
		where, args = append(where, "reviewed_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, user_id, item_uid, quality, points, interval_ms, ease_factor, reviewed_ts
		FROM review_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY reviewed_ts DESC, id DESC` + limitOffset(find.Limit, nil)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query review logs: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ReviewLog, 0)
	for rows.Next() {
		var log store.ReviewLog
		if err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.ItemUID,
			&log.Quality,
			&log.Points,
			&log.IntervalMs,
			&log.EaseFactor,
			&log.ReviewedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review log: %w", err)
		}
		list = append(list, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review logs: %w", err)
	}
	return list, nil
}

func (d *DB) ListLeaderboardRows(ctx context.Context, find *store.FindLeaderboard) ([]*store.LeaderboardRow, error) {
	query := `
		SELECT user_id, COALESCE(SUM(points), 0) AS score, MAX(reviewed_ts)
		FROM review_log
		WHERE reviewed_ts >= $1
		GROUP BY user_id
		ORDER BY score DESC, user_id ASC`
	args := []any{find.SinceTs}
	if find.Limit > 0 {
		query += " LIMIT $2"
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	list := make([]*store.LeaderboardRow, 0)
	for rows.Next() {
		var row store.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Score, &row.LastReviewedTs); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		list = append(list, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}
	return list, nil
}
