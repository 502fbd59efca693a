package postgres

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/fayaz1010/Iqra/store"
)

func (d *DB) UpsertUserProgress(ctx context.Context, upsert *store.UserProgress) (*store.UserProgress, error) {
	achievements, counters, err := encodeProgressPayload(upsert)
	if err != nil {
		return nil, err
	}
	challenges := upsert.Challenges
	if challenges == "" {
		challenges = "{}"
	}

	stmt := `
		INSERT INTO user_progress (
			user_id, xp, level, streak_days, last_active_date,
			unlocked_achievements, counters, challenges
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT(user_id) DO UPDATE SET
			xp = EXCLUDED.xp,
			level = EXCLUDED.level,
			streak_days = EXCLUDED.streak_days,
			last_active_date = EXCLUDED.last_active_date,
			unlocked_achievements = EXCLUDED.unlocked_achievements,
			counters = EXCLUDED.counters,
			challenges = EXCLUDED.challenges,
			updated_ts = EXTRACT(EPOCH FROM NOW())::BIGINT
		RETURNING created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID, upsert.XP, upsert.Level, upsert.StreakDays, upsert.LastActiveDate,
		achievements, counters, challenges,
	).Scan(&upsert.CreatedTs, &upsert.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert user progress")
	}
	upsert.Challenges = challenges
	return upsert, nil
}

func (d *DB) ListUserProgress(ctx context.Context, find *store.FindUserProgress) ([]*store.UserProgress, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(find.UserIDs) > 0 {
		list := make([]string, 0, len(find.UserIDs))
		for _, id := range find.UserIDs {
			args = append(args, id)
			list = append(list, placeholder(len(args)))
		}
		where = append(where, "user_id IN ("+strings.Join(list, ", ")+")")
	}

	query := `
		SELECT
			user_id, xp, level, streak_days, last_active_date,
			unlocked_achievements::TEXT, counters::TEXT, challenges::TEXT, created_ts, updated_ts
		FROM user_progress
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY user_id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query user progress")
	}
	defer rows.Close()

	list := []*store.UserProgress{}
	for rows.Next() {
		var progress store.UserProgress
		var achievements, counters string
		if err := rows.Scan(
			&progress.UserID,
			&progress.XP,
			&progress.Level,
			&progress.StreakDays,
			&progress.LastActiveDate,
			&achievements,
			&counters,
			&progress.Challenges,
			&progress.CreatedTs,
			&progress.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user progress")
		}
		if err := decodeProgressPayload(&progress, achievements, counters); err != nil {
			return nil, err
		}
		list = append(list, &progress)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func encodeProgressPayload(progress *store.UserProgress) (string, string, error) {
	achievements := progress.UnlockedAchievements
	if achievements == nil {
		achievements = []string{}
	}
	counters := progress.Counters
	if counters == nil {
		counters = map[string]int{}
	}
	a, err := json.Marshal(achievements)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal unlocked achievements")
	}
	c, err := json.Marshal(counters)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal counters")
	}
	return string(a), string(c), nil
}

func decodeProgressPayload(progress *store.UserProgress, achievements, counters string) error {
	if err := json.Unmarshal([]byte(achievements), &progress.UnlockedAchievements); err != nil {
		return errors.Wrapf(err, "failed to unmarshal unlocked achievements of %s", progress.UserID)
	}
	if err := json.Unmarshal([]byte(counters), &progress.Counters); err != nil {
		return errors.Wrapf(err, "failed to unmarshal counters of %s", progress.UserID)
	}
	return nil
}
