// Package progress keeps the gamification state of each learner on top of the store.
//
// All read-modify-write cycles on a learner's progress row go through update, which holds a
// per-learner lock so concurrent activity reports and reviews do not lose increments.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fayaz1010/Iqra/plugin/achievement"
	"github.com/fayaz1010/Iqra/plugin/leaderboard"
	"github.com/fayaz1010/Iqra/plugin/notification"
	"github.com/fayaz1010/Iqra/store"
	"github.com/fayaz1010/Iqra/store/cache"
)

// XPPerLevel is the XP needed for each level.
const XPPerLevel = 100

var (
	ErrInvalidActivity      = errors.New("invalid activity counters")
	ErrNotificationNotFound = errors.New("notification not found")
	errUnchanged            = errors.New("progress unchanged")
)

// Store is the interface for store operations needed by the progress service.
type Store interface {
	GetUserProgress(ctx context.Context, userID string) (*store.UserProgress, error)
	UpsertUserProgress(ctx context.Context, upsert *store.UserProgress) (*store.UserProgress, error)
	ListUserProgress(ctx context.Context, find *store.FindUserProgress) ([]*store.UserProgress, error)
	ListLeaderboardRows(ctx context.Context, find *store.FindLeaderboard) ([]*store.LeaderboardRow, error)
	CreateNotification(ctx context.Context, create *store.Notification) (*store.Notification, error)
	ListNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error)
	GetNotification(ctx context.Context, find *store.FindNotification) (*store.Notification, error)
	UpdateNotification(ctx context.Context, update *store.UpdateNotification) (*store.Notification, error)
}

type service struct {
	store  Store
	boards *cache.Cache
	locks  sync.Map // user id -> *sync.Mutex
	now    func() time.Time
}

// Option configures the progress service.
type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService creates a new progress service.
func NewService(st Store, opts ...Option) Service {
	s := &service{
		store: st,
		boards: cache.New(cache.Config{
			DefaultTTL: time.Minute,
			MaxItems:   len(leaderboard.Periods),
		}),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LevelForXP returns the level reached with xp: level 1 below XPPerLevel, then one level per
// XPPerLevel.
func LevelForXP(xp int) int {
	return max(xp, 0)/XPPerLevel + 1
}

func (s *service) lock(userID string) func() {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// update loads the learner's progress (or a fresh level 1 record), applies fn, stores the
// result and delivers the notifications fn returned. If fn returns errUnchanged nothing is
// written.
func (s *service) update(ctx context.Context, userID string, fn func(p *store.UserProgress, now time.Time) ([]notification.Message, error)) (*store.UserProgress, error) {
	unlock := s.lock(userID)
	defer unlock()

	p, err := s.store.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	if p == nil {
		p = &store.UserProgress{UserID: userID, Level: 1}
	}
	if p.Counters == nil {
		p.Counters = make(map[string]int)
	}

	messages, err := fn(p, s.now())
	if errors.Is(err, errUnchanged) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	saved, err := s.store.UpsertUserProgress(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to save user progress: %w", err)
	}
	for _, msg := range messages {
		if _, err := s.Notify(ctx, userID, msg); err != nil {
			slog.Warn("failed to deliver notification",
				slog.String("user", userID),
				slog.String("kind", string(msg.Kind)),
				slog.String("error", err.Error()),
			)
		}
	}
	return saved, nil
}

func (s *service) GetProgress(ctx context.Context, userID string) (*Progress, error) {
	p, err := s.store.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	if p == nil {
		p = &store.UserProgress{UserID: userID, Level: 1}
	}
	return convertProgressFromStore(p), nil
}

func (s *service) RecordActivity(ctx context.Context, userID string, counters map[string]int) (*ActivityResult, error) {
	for name, n := range counters {
		if !achievement.IsCounter(achievement.Requirement(name)) {
			return nil, fmt.Errorf("%w: unknown counter %q", ErrInvalidActivity, name)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidActivity, name)
		}
	}

	var unlocked []achievement.Achievement
	p, err := s.update(ctx, userID, func(p *store.UserProgress, now time.Time) ([]notification.Message, error) {
		for name, n := range counters {
			p.Counters[name] += n
		}
		messages := touchStreak(p, now)
		var earned []notification.Message
		unlocked, earned = unlockAchievements(p)
		messages = append(messages, earned...)
		return append(messages, applyLevel(p)...), nil
	})
	if err != nil {
		return nil, err
	}

	if unlocked == nil {
		unlocked = []achievement.Achievement{}
	}
	return &ActivityResult{
		Progress: convertProgressFromStore(p),
		Unlocked: unlocked,
	}, nil
}

func (s *service) RecordReview(ctx context.Context, userID string, points, learnedItems int) error {
	_, err := s.update(ctx, userID, func(p *store.UserProgress, now time.Time) ([]notification.Message, error) {
		p.XP += points
		p.Counters[string(achievement.LearnedItems)] = learnedItems
		messages := touchStreak(p, now)
		_, earned := unlockAchievements(p)
		messages = append(messages, earned...)
		return append(messages, applyLevel(p)...), nil
	})
	if err != nil {
		return err
	}
	if points > 0 {
		s.boards.Clear(ctx)
	}
	return nil
}

// touchStreak records activity today and announces a streak that grew past one day.
func touchStreak(p *store.UserProgress, now time.Time) []notification.Message {
	before := p.StreakDays
	streak := achievement.Streak{Days: p.StreakDays, LastDate: p.LastActiveDate}.Touch(now)
	p.StreakDays, p.LastActiveDate = streak.Days, streak.LastDate
	if p.StreakDays > 1 && p.StreakDays != before {
		return []notification.Message{notification.Streak(p.StreakDays)}
	}
	return nil
}

// unlockAchievements adds every newly satisfied achievement to p.
func unlockAchievements(p *store.UserProgress) ([]achievement.Achievement, []notification.Message) {
	stats := achievement.Stats{achievement.StreakDays: p.StreakDays}
	for name, n := range p.Counters {
		stats[achievement.Requirement(name)] = n
	}

	earned := achievement.Evaluate(stats, p.UnlockedAchievements)
	messages := make([]notification.Message, 0, len(earned))
	for _, a := range earned {
		p.UnlockedAchievements = append(p.UnlockedAchievements, a.ID)
		messages = append(messages, notification.Achievement(a.ID, a.Title, a.Description))
	}
	return earned, messages
}

// applyLevel derives the level from XP and announces a level up.
func applyLevel(p *store.UserProgress) []notification.Message {
	before := p.Level
	p.Level = LevelForXP(p.XP)
	if before > 0 && p.Level > before {
		return []notification.Message{notification.LevelUp(p.Level)}
	}
	return nil
}

func convertProgressFromStore(p *store.UserProgress) *Progress {
	level := max(p.Level, 1)
	progress := &Progress{
		UserID:         p.UserID,
		XP:             p.XP,
		Level:          level,
		NextLevelXP:    level * XPPerLevel,
		StreakDays:     p.StreakDays,
		LastActiveDate: p.LastActiveDate,
		Counters:       make(map[string]int, len(p.Counters)),
		Achievements:   make([]achievement.Achievement, 0, len(p.UnlockedAchievements)),
	}
	for name, n := range p.Counters {
		progress.Counters[name] = n
	}
	for _, id := range p.UnlockedAchievements {
		if a, ok := achievement.Lookup(id); ok {
			progress.Achievements = append(progress.Achievements, a)
		}
	}
	return progress
}
