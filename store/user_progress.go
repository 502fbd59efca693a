package store

import (
	"context"
	"log/slog"

	"github.com/fayaz1010/Iqra/store/cache"
)

// UserProgress is a learner's gamification state.
type UserProgress struct {
	UserID               string         `json:"user_id"`
	XP                   int            `json:"xp"`
	Level                int            `json:"level"`
	StreakDays           int            `json:"streak_days"`
	LastActiveDate       string         `json:"last_active_date"` // YYYY-MM-DD
	UnlockedAchievements []string       `json:"unlocked_achievements"`
	Counters             map[string]int `json:"counters"`
	Challenges           string         `json:"challenges"` // JSON encoded daily challenge board
	CreatedTs            int64          `json:"created_ts"`
	UpdatedTs            int64          `json:"updated_ts"`
}

type FindUserProgress struct {
	UserID  *string
	UserIDs []string
}

func progressCacheKey(userID string) string {
	return "progress:" + userID
}

// UpsertUserProgress writes the progress row and refreshes the cached copy.
func (s *Store) UpsertUserProgress(ctx context.Context, upsert *UserProgress) (*UserProgress, error) {
	progress, err := s.driver.UpsertUserProgress(ctx, upsert)
	if err != nil {
		s.cache.Delete(ctx, progressCacheKey(upsert.UserID))
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, progressCacheKey(progress.UserID), progress); err != nil {
		slog.Warn("failed to cache user progress", "user", progress.UserID, "error", err)
	}
	return progress, nil
}

func (s *Store) ListUserProgress(ctx context.Context, find *FindUserProgress) ([]*UserProgress, error) {
	return s.driver.ListUserProgress(ctx, find)
}

// GetUserProgress returns the learner's progress, or nil if they have none yet.
func (s *Store) GetUserProgress(ctx context.Context, userID string) (*UserProgress, error) {
	if cached, ok := cache.GetJSON[*UserProgress](ctx, s.cache, progressCacheKey(userID)); ok && cached != nil {
		return cached, nil
	}

	list, err := s.driver.ListUserProgress(ctx, &FindUserProgress{UserID: &userID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	if err := cache.SetJSON(ctx, s.cache, progressCacheKey(userID), list[0]); err != nil {
		slog.Warn("failed to cache user progress", "user", userID, "error", err)
	}
	return list[0], nil
}
