package store

import (
	"context"
)

// ReviewItem is a learner's scheduling state for one letter, pattern or word.
// Times ending in Ms are unix milliseconds, Ts fields are unix seconds.
type ReviewItem struct {
	ID     int32
	UserID string
	// UID is the item id the scheduler knows, unique per learner.
	UID                string
	Type               string
	Content            string
	Level              int
	LastReviewedMs     int64
	NextReviewMs       int64
	IntervalMs         int64
	EaseFactor         float64
	ConsecutiveCorrect int
	CreatedTs          int64
	UpdatedTs          int64
}

type FindReviewItem struct {
	UserID *string
	UID    *string
	Type   *string

	// MaxLevel limits the result to items at or below a curriculum level.
	MaxLevel *int
	// DueBeforeMs limits the result to items with next_review_ms <= DueBeforeMs.
	DueBeforeMs *int64

	// Pagination
	Limit  *int
	Offset *int
}

type DeleteReviewItem struct {
	UserID string
	UID    string
}

// UpsertReviewItem inserts the item or replaces the scheduling state of the existing
// (user_id, uid) row.
func (s *Store) UpsertReviewItem(ctx context.Context, upsert *ReviewItem) (*ReviewItem, error) {
	return s.driver.UpsertReviewItem(ctx, upsert)
}

// ListReviewItems returns items ordered by next review time, earliest first.
func (s *Store) ListReviewItems(ctx context.Context, find *FindReviewItem) ([]*ReviewItem, error) {
	return s.driver.ListReviewItems(ctx, find)
}

// GetReviewItem returns the first matching item, or nil if there is none.
func (s *Store) GetReviewItem(ctx context.Context, find *FindReviewItem) (*ReviewItem, error) {
	list, err := s.ListReviewItems(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteReviewItem(ctx context.Context, delete *DeleteReviewItem) error {
	return s.driver.DeleteReviewItem(ctx, delete)
}
