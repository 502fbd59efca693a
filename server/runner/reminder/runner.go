package reminder

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fayaz1010/Iqra/plugin/notification"
	"github.com/fayaz1010/Iqra/server/service/progress"
	"github.com/fayaz1010/Iqra/store"
)

// SettingRemindersSent is the system setting recording who was reminded on the current UTC day.
const SettingRemindersSent = "reminders_sent"

// Store is the slice of the store the runner reads due items from and records reminders in.
type Store interface {
	ListReviewItems(ctx context.Context, find *store.FindReviewItem) ([]*store.ReviewItem, error)
	GetSystemSetting(ctx context.Context, name string) (*store.SystemSetting, error)
	UpsertSystemSetting(ctx context.Context, upsert *store.SystemSetting) (*store.SystemSetting, error)
}

type remindersSent struct {
	Date  string   `json:"date"`
	Users []string `json:"users"`
}

// Notifier delivers reminder notifications.
type Notifier interface {
	Notify(ctx context.Context, userID string, msg notification.Message) (*progress.Notification, error)
}

// Runner periodically reminds learners who have reviews waiting. Each learner is reminded at most
// once per UTC day, across restarts: the day's reminders are kept in the reminders_sent setting.
type Runner struct {
	store    Store
	notifier Notifier
	interval time.Duration
	pageSize int
	now      func() time.Time

	mu       sync.Mutex
	reminded map[string]string // user id -> date of the last reminder
	restored string             // date whose persisted reminders are loaded
}

// NewRunner creates a due review reminder runner.
func NewRunner(store Store, notifier Notifier) *Runner {
	return &Runner{
		store:    store,
		notifier: notifier,
		interval: 30 * time.Minute,
		pageSize: 500,
		now:      time.Now,
		reminded: make(map[string]string),
	}
}

// Run starts the background task.
func (r *Runner) Run(ctx context.Context) {
	// Process once on startup
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("reminder runner stopped")
			return
		}
	}
}

// RunOnce sends reminders for the reviews due now and returns how many were sent.
func (r *Runner) RunOnce(ctx context.Context) int {
	now := r.now()
	dueCounts, err := r.countDue(ctx, now)
	if err != nil {
		slog.Error("failed to find due review items", "error", err)
		return 0
	}

	today := now.UTC().Format(time.DateOnly)
	if err := r.restore(ctx, today); err != nil {
		slog.Error("failed to load sent reminders", "error", err)
		return 0
	}

	sent := 0
	defer func() {
		if sent > 0 {
			r.persist(context.WithoutCancel(ctx), today)
		}
	}()
	for userID, count := range dueCounts {
		select {
		case <-ctx.Done():
			slog.Info("reminder processing cancelled", "sent", sent)
			return sent
		default:
		}

		if !r.claim(userID, today) {
			continue
		}
		if _, err := r.notifier.Notify(ctx, userID, notification.Reminder(count)); err != nil {
			slog.Error("failed to send review reminder", "user", userID, "error", err)
			r.release(userID, today)
			continue
		}
		sent++
	}
	if sent > 0 {
		slog.Info("review reminders sent", "count", sent)
	}
	return sent
}

// countDue pages through every due item and counts them per learner.
func (r *Runner) countDue(ctx context.Context, now time.Time) (map[string]int, error) {
	dueBefore := now.UnixMilli()
	counts := make(map[string]int)
	for offset := 0; ; offset += r.pageSize {
		limit, off := r.pageSize, offset
		items, err := r.store.ListReviewItems(ctx, &store.FindReviewItem{
			DueBeforeMs: &dueBefore,
			Limit:       &limit,
			Offset:      &off,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			counts[item.UserID]++
		}
		if len(items) < r.pageSize {
			return counts, nil
		}
	}
}

func (r *Runner) claim(userID, today string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reminded[userID] == today {
		return false
	}
	r.reminded[userID] = today
	return true
}

func (r *Runner) release(userID, today string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reminded[userID] == today {
		delete(r.reminded, userID)
	}
}

// restore loads the reminders already sent today, once per day. Entries from earlier days are
// dropped.
func (r *Runner) restore(ctx context.Context, today string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.restored == today {
		return nil
	}

	setting, err := r.store.GetSystemSetting(ctx, SettingRemindersSent)
	if err != nil {
		return err
	}
	for userID, date := range r.reminded {
		if date != today {
			delete(r.reminded, userID)
		}
	}
	if setting != nil {
		var record remindersSent
		if err := json.Unmarshal([]byte(setting.Value), &record); err != nil {
			slog.Warn("ignoring malformed sent reminders", "error", err)
		} else if record.Date == today {
			for _, userID := range record.Users {
				r.reminded[userID] = today
			}
		}
	}
	r.restored = today
	return nil
}

// persist records every learner reminded today.
func (r *Runner) persist(ctx context.Context, today string) {
	r.mu.Lock()
	record := remindersSent{Date: today, Users: make([]string, 0, len(r.reminded))}
	for userID, date := range r.reminded {
		if date == today {
			record.Users = append(record.Users, userID)
		}
	}
	r.mu.Unlock()
	slices.Sort(record.Users)

	value, err := json.Marshal(record)
	if err != nil {
		slog.Error("failed to encode sent reminders", "error", err)
		return
	}
	if _, err := r.store.UpsertSystemSetting(ctx, &store.SystemSetting{
		Name:        SettingRemindersSent,
		Value:       string(value),
		Description: "Learners reminded of due reviews on the given UTC day",
	}); err != nil {
		slog.Error("failed to save sent reminders", "error", err)
	}
}
