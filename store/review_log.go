package store

import (
	"context"
)

// ReviewLog records one graded review.
type ReviewLog struct {
	ID         int32
	UserID     string
	ItemUID    string
	Quality    int
	Points     int
	IntervalMs int64
	EaseFactor float64
	ReviewedTs int64
}

type FindReviewLog struct {
	UserID  *string
	ItemUID *string
	// SinceTs limits the result to logs with reviewed_ts >= SinceTs.
	SinceTs *int64
	Limit   *int
}

// LeaderboardRow is a learner's point total within a window.
type LeaderboardRow struct {
	UserID         string
	Score          int
	LastReviewedTs int64
}

type FindLeaderboard struct {
	// SinceTs is the start of the window in unix seconds. Zero covers all time.
	SinceTs int64
	Limit   int
}

func (s *Store) CreateReviewLog(ctx context.Context, create *ReviewLog) (*ReviewLog, error) {
	return s.driver.CreateReviewLog(ctx, create)
}

// ListReviewLogs returns logs newest first.
func (s *Store) ListReviewLogs(ctx context.Context, find *FindReviewLog) ([]*ReviewLog, error) {
	return s.driver.ListReviewLogs(ctx, find)
}

// ListLeaderboardRows sums points per learner, highest score first.
func (s *Store) ListLeaderboardRows(ctx context.Context, find *FindLeaderboard) ([]*LeaderboardRow, error) {
	return s.driver.ListLeaderboardRows(ctx, find)
}
