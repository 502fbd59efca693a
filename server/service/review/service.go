// Package review persists SM-2 review items per learner and runs review sessions over them.
//
// The scheduling rules live in plugin/srs; this package converts between scheduler items and
// store rows, logs every review and reports outcomes to the progress service.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fayaz1010/Iqra/internal/curriculum"
	"github.com/fayaz1010/Iqra/plugin/filter"
	"github.com/fayaz1010/Iqra/plugin/pattern"
	"github.com/fayaz1010/Iqra/plugin/srs"
	"github.com/fayaz1010/Iqra/store"
)

const (
	// DefaultMaxDailyReviews is used when no daily maximum is configured.
	DefaultMaxDailyReviews = 20

	// enrollConcurrency bounds the parallel store writes of LoadCurriculum.
	enrollConcurrency = 8

	dateLayout = "2006-01-02"
)

var (
	ErrItemNotFound = errors.New("review item not found")
	ErrInvalidLevel = errors.New("level must be at least 1")
	ErrInvalidItem  = errors.New("review item requires an id and content")
)

// Store is the interface for store operations needed by the review service.
type Store interface {
	UpsertReviewItem(ctx context.Context, upsert *store.ReviewItem) (*store.ReviewItem, error)
	ListReviewItems(ctx context.Context, find *store.FindReviewItem) ([]*store.ReviewItem, error)
	GetReviewItem(ctx context.Context, find *store.FindReviewItem) (*store.ReviewItem, error)
	CreateReviewLog(ctx context.Context, create *store.ReviewLog) (*store.ReviewLog, error)
	ListReviewLogs(ctx context.Context, find *store.FindReviewLog) ([]*store.ReviewLog, error)
}

type service struct {
	store           Store
	progress        ProgressRecorder
	curriculum      *curriculum.Curriculum
	patterns        *pattern.Matcher
	maxDailyReviews int
	locks           sync.Map // user id -> *sync.Mutex
	now             func() time.Time
}

// Option configures the review service.
type Option func(*service)

// WithProgressRecorder reports every review to p.
func WithProgressRecorder(p ProgressRecorder) Option {
	return func(s *service) {
		s.progress = p
	}
}

// WithMaxDailyReviews sets the default size of a review session.
func WithMaxDailyReviews(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.maxDailyReviews = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService creates a new review service.
func NewService(st Store, c *curriculum.Curriculum, opts ...Option) Service {
	s := &service{
		store:           st,
		curriculum:      c,
		patterns:        pattern.NewMatcher(),
		maxDailyReviews: DefaultMaxDailyReviews,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) EnrollItem(ctx context.Context, userID string, create *EnrollRequest) (*Item, error) {
	itemType, err := srs.ParseItemType(create.Type)
	if err != nil {
		return nil, err
	}
	if create.UID == "" || create.Content == "" {
		return nil, ErrInvalidItem
	}

	item, _, err := s.enroll(ctx, userID, srs.NewReviewItem(create.UID, itemType, create.Content, create.Level, s.now()))
	if err != nil {
		return nil, err
	}
	return s.withStatus(item), nil
}

// enroll stores item unless the learner already has an item with the same id, in which case
// the stored one is returned. It reports whether item was created.
func (s *service) enroll(ctx context.Context, userID string, item srs.ReviewItem) (srs.ReviewItem, bool, error) {
	existing, err := s.store.GetReviewItem(ctx, &store.FindReviewItem{UserID: &userID, UID: &item.ID})
	if err != nil {
		return srs.ReviewItem{}, false, fmt.Errorf("failed to get review item: %w", err)
	}
	if existing != nil {
		current, err := convertReviewItemFromStore(existing)
		return current, false, err
	}

	if _, err := s.store.UpsertReviewItem(ctx, convertReviewItemToStore(userID, item)); err != nil {
		return srs.ReviewItem{}, false, fmt.Errorf("failed to create review item: %w", err)
	}
	return item, true, nil
}

func (s *service) LoadCurriculum(ctx context.Context, userID string, level int) (int, error) {
	if level < 1 {
		return 0, ErrInvalidLevel
	}

	now := s.now()
	var items []srs.ReviewItem
	for _, l := range s.curriculum.UpTo(level) {
		for _, letter := range l.Letters {
			items = append(items, srs.NewReviewItem(letter.ID, srs.Letter, letter.Glyph, l.Level, now))
		}
		for _, word := range l.Words {
			items = append(items, srs.NewReviewItem(word.ID, srs.Word, word.Text, l.Level, now))
		}
	}
	for _, p := range s.patterns.ByLevel(level) {
		items = append(items, srs.NewReviewItem(p.ID, srs.Pattern, p.ArabicText, p.Level, now))
	}

	var enrolled atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrollConcurrency)
	for _, item := range items {
		g.Go(func() error {
			_, created, err := s.enroll(gctx, userID, item)
			if err != nil {
				return err
			}
			if created {
				enrolled.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(enrolled.Load()), err
	}

	slog.Info("curriculum loaded",
		slog.String("user", userID),
		slog.Int("level", level),
		slog.Int("enrolled", int(enrolled.Load())),
	)
	return int(enrolled.Load()), nil
}

func (s *service) GetDueReviews(ctx context.Context, userID string, limit int) (*DueReviews, error) {
	if limit <= 0 {
		limit = s.maxDailyReviews
	}

	now := s.now()
	nowMs := now.UnixMilli()
	list, err := s.store.ListReviewItems(ctx, &store.FindReviewItem{UserID: &userID, DueBeforeMs: &nowMs})
	if err != nil {
		return nil, fmt.Errorf("failed to list due items: %w", err)
	}
	items, err := convertReviewItemsFromStore(list)
	if err != nil {
		return nil, err
	}

	due := srs.DueItems(items, now)
	result := &DueReviews{
		Items:    make([]*Item, 0, min(limit, len(due))),
		TotalDue: len(due),
	}
	for _, item := range due[:min(limit, len(due))] {
		result.Items = append(result.Items, s.withStatusAt(item, now))
	}
	return result, nil
}

func (s *service) RecordReview(ctx context.Context, userID, uid string, quality srs.Quality) (*ReviewResult, error) {
	if !quality.IsValid() {
		return nil, srs.ErrInvalidQuality
	}

	points, next, now, err := s.applyReview(ctx, userID, uid, quality)
	if err != nil {
		return nil, err
	}

	if s.progress != nil {
		s.reportProgress(ctx, userID, points)
	}

	return &ReviewResult{
		Item:   s.withStatusAt(next, now),
		Points: points,
	}, nil
}

func (s *service) lock(userID string) func() {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// applyReview reschedules the item and logs the review while holding the learner's lock, so
// concurrent reviews of one item each see the previous result.
func (s *service) applyReview(ctx context.Context, userID, uid string, quality srs.Quality) (int, srs.ReviewItem, time.Time, error) {
	unlock := s.lock(userID)
	defer unlock()

	current, err := s.getItem(ctx, userID, uid)
	if err != nil {
		return 0, srs.ReviewItem{}, time.Time{}, err
	}

	now := s.now()
	next, err := srs.CalculateNextReview(current, quality, now)
	if err != nil {
		return 0, srs.ReviewItem{}, now, err
	}
	if _, err := s.store.UpsertReviewItem(ctx, convertReviewItemToStore(userID, next)); err != nil {
		return 0, srs.ReviewItem{}, now, fmt.Errorf("failed to update review item: %w", err)
	}

	points := reviewPoints(quality)
	if _, err := s.store.CreateReviewLog(ctx, &store.ReviewLog{
		UserID:     userID,
		ItemUID:    uid,
		Quality:    int(quality),
		Points:     points,
		IntervalMs: next.Interval,
		EaseFactor: next.EaseFactor,
		ReviewedTs: now.Unix(),
	}); err != nil {
		return 0, srs.ReviewItem{}, now, fmt.Errorf("failed to log review: %w", err)
	}
	return points, next, now, nil
}

// reportProgress forwards the review to the progress service. Failures are logged only; the
// review itself has already been recorded.
func (s *service) reportProgress(ctx context.Context, userID string, points int) {
	learned, err := s.countLearned(ctx, userID)
	if err != nil {
		slog.Warn("failed to count learned items", slog.String("user", userID), slog.String("error", err.Error()))
		return
	}
	if err := s.progress.RecordReview(ctx, userID, points, learned); err != nil {
		slog.Warn("failed to record review progress", slog.String("user", userID), slog.String("error", err.Error()))
	}
}

func (s *service) countLearned(ctx context.Context, userID string) (int, error) {
	list, err := s.store.ListReviewItems(ctx, &store.FindReviewItem{UserID: &userID})
	if err != nil {
		return 0, err
	}
	learned := 0
	for _, item := range list {
		if item.ConsecutiveCorrect >= srs.LearnedThreshold {
			learned++
		}
	}
	return learned, nil
}

// reviewPoints is twice the quality for a passing review and nothing otherwise.
func reviewPoints(quality srs.Quality) int {
	if !quality.Passed() {
		return 0
	}
	return int(quality) * 2
}

func (s *service) GetItemStatus(ctx context.Context, userID, uid string) (*Item, error) {
	item, err := s.getItem(ctx, userID, uid)
	if err != nil {
		return nil, err
	}
	return s.withStatus(item), nil
}

func (s *service) getItem(ctx context.Context, userID, uid string) (srs.ReviewItem, error) {
	row, err := s.store.GetReviewItem(ctx, &store.FindReviewItem{UserID: &userID, UID: &uid})
	if err != nil {
		return srs.ReviewItem{}, fmt.Errorf("failed to get review item: %w", err)
	}
	if row == nil {
		return srs.ReviewItem{}, ErrItemNotFound
	}
	return convertReviewItemFromStore(row)
}

func (s *service) ListItems(ctx context.Context, userID, expr string) ([]*Item, error) {
	var f *filter.Filter
	if expr != "" {
		compiled, err := filter.Compile(expr)
		if err != nil {
			return nil, err
		}
		f = compiled
	}

	list, err := s.store.ListReviewItems(ctx, &store.FindReviewItem{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	items, err := convertReviewItemsFromStore(list)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]*Item, 0, len(items))
	for _, item := range items {
		withStatus := s.withStatusAt(item, now)
		if f != nil {
			ok, err := f.Match(filterVars(withStatus))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		result = append(result, withStatus)
	}
	return result, nil
}

func filterVars(item *Item) filter.Vars {
	return filter.Vars{
		ID:                 item.ID,
		ItemType:           item.Type.String(),
		Content:            item.Content,
		Level:              item.Level,
		EaseFactor:         item.EaseFactor,
		IntervalDays:       float64(item.Interval) / float64(srs.Day),
		ConsecutiveCorrect: item.ConsecutiveCorrect,
		Status:             string(item.Status.Status),
	}
}

func (s *service) GetReviewStats(ctx context.Context, userID string) (*Stats, error) {
	var (
		items []*store.ReviewItem
		logs  []*store.ReviewLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.ListReviewItems(gctx, &store.FindReviewItem{UserID: &userID})
		if err != nil {
			return fmt.Errorf("failed to list review items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		logs, err = s.store.ListReviewLogs(gctx, &store.FindReviewLog{UserID: &userID})
		if err != nil {
			return fmt.Errorf("failed to list review logs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	nowMs := now.UnixMilli()
	midnightMs := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).UnixMilli()

	stats := &Stats{
		TotalItems:   len(items),
		TotalReviews: len(logs),
	}
	for _, item := range items {
		if item.NextReviewMs <= nowMs {
			stats.DueItems++
		}
		if item.IntervalMs == 0 {
			stats.NewItems++
		}
		if item.ConsecutiveCorrect >= srs.LearnedThreshold {
			stats.LearnedItems++
		}
		if item.LastReviewedMs >= midnightMs {
			stats.ReviewedToday++
		}
	}

	passed := 0
	days := make(map[string]bool)
	for _, log := range logs {
		if srs.Quality(log.Quality).Passed() {
			passed++
		}
		days[time.Unix(log.ReviewedTs, 0).UTC().Format(dateLayout)] = true
	}
	if len(logs) > 0 {
		stats.Accuracy = float64(passed) / float64(len(logs)) * 100
	}
	stats.StreakDays = reviewStreak(days, now)
	return stats, nil
}

// reviewStreak counts consecutive days with reviews, ending today or, if there were none
// today yet, yesterday.
func reviewStreak(days map[string]bool, now time.Time) int {
	day := now
	if !days[day.Format(dateLayout)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for days[day.Format(dateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func (s *service) withStatus(item srs.ReviewItem) *Item {
	return s.withStatusAt(item, s.now())
}

func (s *service) withStatusAt(item srs.ReviewItem, now time.Time) *Item {
	return &Item{
		ReviewItem: item,
		Phase:      srs.PhaseOf(item),
		Status:     srs.ReviewStatus(item, now),
	}
}
