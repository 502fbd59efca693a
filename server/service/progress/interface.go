package progress

import (
	"context"

	"github.com/fayaz1010/Iqra/plugin/achievement"
	"github.com/fayaz1010/Iqra/plugin/challenge"
	"github.com/fayaz1010/Iqra/plugin/leaderboard"
	"github.com/fayaz1010/Iqra/plugin/notification"
)

// Service manages gamification state: XP and levels, the login streak, achievements, daily
// challenges, leaderboards and notifications.
type Service interface {
	GetProgress(ctx context.Context, userID string) (*Progress, error)

	// RecordActivity adds client-reported counters (pages read, practice sessions, books
	// completed, Quran verses), touches the login streak and unlocks achievements.
	RecordActivity(ctx context.Context, userID string, counters map[string]int) (*ActivityResult, error)

	// RecordReview grants the points earned by a review and records the learned item count.
	RecordReview(ctx context.Context, userID string, points, learnedItems int) error

	GetChallenges(ctx context.Context, userID string) (*Challenges, error)
	CompleteChallenge(ctx context.Context, userID, challengeID string) (*ChallengeResult, error)
	UpdateChallengeProgress(ctx context.Context, userID, challengeID string, progress int) (*challenge.Challenge, error)

	GetLeaderboard(ctx context.Context, period leaderboard.Period) (*leaderboard.Board, error)
	GetRank(ctx context.Context, period leaderboard.Period, userID string) (*Rank, error)

	Notify(ctx context.Context, userID string, msg notification.Message) (*Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error)
	MarkNotificationRead(ctx context.Context, userID string, id int32) (*Notification, error)
}

// Progress is a learner's XP, level, streak, counters and unlocked achievements.
type Progress struct {
	UserID         string                    `json:"user_id"`
	XP             int                       `json:"xp"`
	Level          int                       `json:"level"`
	NextLevelXP    int                       `json:"next_level_xp"`
	StreakDays     int                       `json:"streak_days"`
	LastActiveDate string                    `json:"last_active_date"`
	Counters       map[string]int            `json:"counters"`
	Achievements   []achievement.Achievement `json:"achievements"`
}

type ActivityResult struct {
	Progress *Progress                `json:"progress"`
	Unlocked []achievement.Achievement `json:"unlocked"`
}

// Challenges is the learner's board for today.
type Challenges struct {
	Current     []challenge.Challenge `json:"current"`
	Completed   []challenge.Challenge `json:"completed"`
	Streak      int                   `json:"streak"`
	StreakBonus int                   `json:"streak_bonus"` // percent
}

type ChallengeResult struct {
	Challenge challenge.Challenge `json:"challenge"`
	EarnedXP  int                 `json:"earned_xp"`
	Streak    int                 `json:"streak"`
	Progress  *Progress           `json:"progress"`
}

type Rank struct {
	Period leaderboard.Period `json:"period"`
	Rank   int                `json:"rank"` // 0 when the learner is not on the board
	Entry  *leaderboard.Entry `json:"entry,omitempty"`
}

type Notification struct {
	ID        int32                `json:"id"`
	UID       string               `json:"uid"`
	Kind      notification.Kind    `json:"kind"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Payload   notification.Payload `json:"payload"`
	Read      bool                 `json:"read"`
	CreatedTs int64                `json:"created_ts"`
}
