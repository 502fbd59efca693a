package srs

import (
	"math"
	"sort"
	"time"
)

// NewReviewItem creates an item that is due immediately and has never been reviewed.
func NewReviewItem(id string, itemType ItemType, content string, level int, now time.Time) ReviewItem {
	return ReviewItem{
		ID:                 id,
		Type:               itemType,
		Content:            content,
		Level:              level,
		LastReviewed:       0,
		NextReview:         now.UnixMilli(),
		Interval:           0,
		EaseFactor:         InitialEaseFactor,
		ConsecutiveCorrect: 0,
	}
}

// CalculateNextReview applies one review with the given quality at time now and returns the
// updated item. The input item is not modified.
// Qualities outside 0..5 are rejected with ErrInvalidQuality.
func CalculateNextReview(item ReviewItem, quality Quality, now time.Time) (ReviewItem, error) {
	if !quality.IsValid() {
		return ReviewItem{}, ErrInvalidQuality
	}

	next := item
	next.EaseFactor = nextEaseFactor(item.EaseFactor, quality)

	if !quality.Passed() {
		next.Interval = MinInterval
		next.ConsecutiveCorrect = 0
	} else {
		next.ConsecutiveCorrect++
		if item.Interval == 0 {
			next.Interval = MinInterval
		} else {
			next.Interval = growInterval(item.Interval, next.EaseFactor)
		}
	}

	next.LastReviewed = now.UnixMilli()
	next.NextReview = next.LastReviewed + next.Interval
	return next, nil
}

// nextEaseFactor is the SM-2 ease adjustment:
// EF' = EF + (0.1 - (5 - q) * (0.08 + (5 - q) * 0.02)), floored at MinEaseFactor.
func nextEaseFactor(ef float64, quality Quality) float64 {
	d := float64(QualityPerfect - quality)
	return math.Max(MinEaseFactor, ef+(0.1-d*(0.08+d*0.02)))
}

// growInterval multiplies the interval by the ease factor, rounded to the millisecond and
// clamped to [MinInterval, MaxInterval].
func growInterval(interval int64, ef float64) int64 {
	grown := math.Min(math.Round(float64(interval)*ef), float64(MaxInterval))
	if grown < float64(MinInterval) {
		return MinInterval
	}
	return int64(grown)
}

// DueItems returns the items whose next review is at or before now, most overdue first.
// The result is a new slice; items is left untouched.
func DueItems(items []ReviewItem, now time.Time) []ReviewItem {
	nowMs := now.UnixMilli()
	due := make([]ReviewItem, 0, len(items))
	for _, item := range items {
		if item.NextReview <= nowMs {
			due = append(due, item)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReview < due[j].NextReview
	})
	return due
}

// ReviewStatus reports days until the next review, the derived status and the progress toward
// the learned threshold. A due item is reported as due even if it has a long correct streak.
func ReviewStatus(item ReviewItem, now time.Time) StatusReport {
	nowMs := now.UnixMilli()

	days := 0
	if diff := item.NextReview - nowMs; diff > 0 {
		days = int((diff + Day - 1) / Day)
	}

	var status Status
	switch {
	case item.NextReview <= nowMs:
		status = StatusDue
	case item.ConsecutiveCorrect >= LearnedThreshold:
		status = StatusLearned
	default:
		status = StatusUpcoming
	}

	progress := math.Min(float64(item.ConsecutiveCorrect)/LearnedThreshold*100, 100)

	return StatusReport{
		DaysUntilReview: days,
		Status:          status,
		Progress:        progress,
	}
}

// PhaseOf returns the learning phase of an item.
func PhaseOf(item ReviewItem) Phase {
	switch {
	case item.Interval == 0:
		return PhaseNew
	case item.ConsecutiveCorrect >= LearnedThreshold:
		return PhaseLearned
	default:
		return PhaseLearning
	}
}
