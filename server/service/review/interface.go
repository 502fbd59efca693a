package review

import (
	"context"

	"github.com/fayaz1010/Iqra/plugin/srs"
)

// Service is the review session collaborator: it keeps each learner's scheduling state in the
// store and applies the SM-2 scheduler to it.
type Service interface {
	// EnrollItem adds an item due immediately. Enrolling an existing item returns it unchanged.
	EnrollItem(ctx context.Context, userID string, create *EnrollRequest) (*Item, error)

	// LoadCurriculum enrolls every letter, pattern and word of the levels up to level.
	// It returns the number of newly enrolled items.
	LoadCurriculum(ctx context.Context, userID string, level int) (int, error)

	// GetDueReviews returns up to limit due items, most overdue first, and the total due count.
	// A limit of zero or less uses the configured daily maximum.
	GetDueReviews(ctx context.Context, userID string, limit int) (*DueReviews, error)

	// RecordReview applies a 0-5 quality rating to the item and logs the review.
	RecordReview(ctx context.Context, userID, uid string, quality srs.Quality) (*ReviewResult, error)

	// GetItemStatus returns the item with its status relative to now.
	GetItemStatus(ctx context.Context, userID, uid string) (*Item, error)

	// ListItems returns the learner's items matching the CEL filter expression.
	// An empty filter matches everything.
	ListItems(ctx context.Context, userID, filter string) ([]*Item, error)

	// GetReviewStats summarizes the learner's items and review history.
	GetReviewStats(ctx context.Context, userID string) (*Stats, error)
}

// ProgressRecorder receives the outcome of every review.
type ProgressRecorder interface {
	RecordReview(ctx context.Context, userID string, points, learnedItems int) error
}

// EnrollRequest describes a new review item.
type EnrollRequest struct {
	UID     string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Level   int    `json:"level"`
}

// Item is a review item together with its derived status.
type Item struct {
	srs.ReviewItem
	Phase  srs.Phase        `json:"phase"`
	Status srs.StatusReport `json:"status"`
}

type DueReviews struct {
	Items    []*Item `json:"items"`
	TotalDue int     `json:"total_due"`
}

type ReviewResult struct {
	Item   *Item `json:"item"`
	Points int   `json:"points"`
}

// Stats summarizes a learner's review state.
type Stats struct {
	TotalItems    int     `json:"total_items"`
	DueItems      int     `json:"due_items"`
	ReviewedToday int     `json:"reviewed_today"`
	NewItems      int     `json:"new_items"`
	LearnedItems  int     `json:"learned_items"`
	TotalReviews  int     `json:"total_reviews"`
	StreakDays    int     `json:"streak_days"`
	Accuracy      float64 `json:"accuracy"` // percentage of passing reviews
}
