package progress

import (
	"context"
	"fmt"

	"github.com/fayaz1010/Iqra/plugin/leaderboard"
	"github.com/fayaz1010/Iqra/store"
)

func boardCacheKey(period leaderboard.Period) string {
	return "leaderboard:" + string(period)
}

// GetLeaderboard ranks learners by the review points earned within the period.
// Boards are cached briefly and dropped whenever a learner's score or level changes.
func (s *service) GetLeaderboard(ctx context.Context, period leaderboard.Period) (*leaderboard.Board, error) {
	if cached, ok := s.boards.Get(ctx, boardCacheKey(period)); ok {
		if board, ok := cached.(*leaderboard.Board); ok {
			return copyBoard(board), nil
		}
	}

	board, err := s.buildBoard(ctx, period)
	if err != nil {
		return nil, err
	}
	s.boards.Set(ctx, boardCacheKey(period), board)
	return copyBoard(board), nil
}

func (s *service) buildBoard(ctx context.Context, period leaderboard.Period) (*leaderboard.Board, error) {
	var sinceTs int64
	if since := period.Since(s.now()); !since.IsZero() {
		sinceTs = since.Unix()
	}
	rows, err := s.store.ListLeaderboardRows(ctx, &store.FindLeaderboard{SinceTs: sinceTs, Limit: leaderboard.MaxEntries})
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard rows: %w", err)
	}

	board := &leaderboard.Board{Period: period, Entries: []leaderboard.Entry{}}
	if len(rows) == 0 {
		return board, nil
	}

	userIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		userIDs = append(userIDs, row.UserID)
	}
	list, err := s.store.ListUserProgress(ctx, &store.FindUserProgress{UserIDs: userIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to list user progress: %w", err)
	}
	progressByUser := make(map[string]*store.UserProgress, len(list))
	for _, p := range list {
		progressByUser[p.UserID] = p
	}

	for _, row := range rows {
		entry := leaderboard.Entry{
			UserID:     row.UserID,
			Score:      row.Score,
			Level:      1,
			LastActive: row.LastReviewedTs,
		}
		if p, ok := progressByUser[row.UserID]; ok {
			entry.Level = max(p.Level, 1)
			entry.Streak = p.StreakDays
			entry.Achievements = len(p.UnlockedAchievements)
		}
		board.Upsert(entry)
	}
	return board, nil
}

func copyBoard(board *leaderboard.Board) *leaderboard.Board {
	return &leaderboard.Board{
		Period:  board.Period,
		Entries: append([]leaderboard.Entry{}, board.Entries...),
	}
}

func (s *service) GetRank(ctx context.Context, period leaderboard.Period, userID string) (*Rank, error) {
	board, err := s.GetLeaderboard(ctx, period)
	if err != nil {
		return nil, err
	}
	rank := &Rank{Period: period, Rank: board.Rank(userID)}
	if rank.Rank > 0 {
		entry := board.Entries[rank.Rank-1]
		rank.Entry = &entry
	}
	return rank, nil
}
