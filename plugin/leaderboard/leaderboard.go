// Package leaderboard ranks learners by points earned within a period.
package leaderboard

import (
	"errors"
	"sort"
	"time"
)

// MaxEntries is the number of entries a board keeps.
const MaxEntries = 100

var ErrInvalidPeriod = errors.New("leaderboard: invalid period")

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	AllTime Period = "all_time"
)

// Periods lists every period in display order.
var Periods = []Period{Daily, Weekly, Monthly, AllTime}

func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", ErrInvalidPeriod
}

// Since returns the start of the period window ending at now. Daily starts at midnight UTC,
// weekly and monthly cover the last 7 and 30 calendar days including today, and all time
// returns the zero time.
func (p Period) Since(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	switch p {
	case Daily:
		return midnight
	case Weekly:
		return midnight.AddDate(0, 0, -6)
	case Monthly:
		return midnight.AddDate(0, 0, -29)
	default:
		return time.Time{}
	}
}

type Entry struct {
	UserID       string `json:"user_id"`
	Score        int    `json:"score"`
	Level        int    `json:"level"`
	Streak       int    `json:"streak"`
	Achievements int    `json:"achievements"`
	LastActive   int64  `json:"last_active"` // unix seconds
}

// Board is one period's ranking, sorted by score descending.
type Board struct {
	Period  Period  `json:"period"`
	Entries []Entry `json:"entries"`
}

// Upsert replaces or adds the learner's entry, re-sorts and keeps the top MaxEntries.
// Ties keep their previous relative order.
func (b *Board) Upsert(e Entry) {
	replaced := false
	for i := range b.Entries {
		if b.Entries[i].UserID == e.UserID {
			b.Entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		b.Entries = append(b.Entries, e)
	}
	sort.SliceStable(b.Entries, func(i, j int) bool {
		return b.Entries[i].Score > b.Entries[j].Score
	})
	if len(b.Entries) > MaxEntries {
		b.Entries = b.Entries[:MaxEntries]
	}
}

// Rank returns the learner's 1-based position, or 0 if they are not on the board.
func (b *Board) Rank(userID string) int {
	for i, e := range b.Entries {
		if e.UserID == userID {
			return i + 1
		}
	}
	return 0
}
