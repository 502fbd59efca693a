package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error)

	// ReviewItem model related methods.
	UpsertReviewItem(ctx context.Context, upsert *ReviewItem) (*ReviewItem, error)
	ListReviewItems(ctx context.Context, find *FindReviewItem) ([]*ReviewItem, error)
	DeleteReviewItem(ctx context.Context, delete *DeleteReviewItem) error

	// ReviewLog model related methods.
	CreateReviewLog(ctx context.Context, create *ReviewLog) (*ReviewLog, error)
	ListReviewLogs(ctx context.Context, find *FindReviewLog) ([]*ReviewLog, error)
	ListLeaderboardRows(ctx context.Context, find *FindLeaderboard) ([]*LeaderboardRow, error)

	// UserProgress model related methods.
	UpsertUserProgress(ctx context.Context, upsert *UserProgress) (*UserProgress, error)
	ListUserProgress(ctx context.Context, find *FindUserProgress) ([]*UserProgress, error)

	// Notification model related methods.
	CreateNotification(ctx context.Context, create *Notification) (*Notification, error)
	ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error)
	UpdateNotification(ctx context.Context, update *UpdateNotification) (*Notification, error)
}
