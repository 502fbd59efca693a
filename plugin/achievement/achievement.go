// Package achievement defines the achievement catalog and the daily login streak.
package achievement

import (
	"slices"
	"time"
)

// DateLayout is the calendar date format used for streak bookkeeping.
const DateLayout = "2006-01-02"

// Requirement is the statistic an achievement is measured against.
type Requirement string

const (
	PagesRead        Requirement = "pages_read"
	PracticeSessions Requirement = "practice_sessions"
	StreakDays       Requirement = "streak"
	BooksCompleted   Requirement = "books_completed"
	QuranVerses      Requirement = "quran_verses"
	LearnedItems     Requirement = "learned_items"
)

// Counters are the requirements a client reports directly as activity.
// Streak and learned items are derived on the server.
var Counters = []Requirement{PagesRead, PracticeSessions, BooksCompleted, QuranVerses}

// IsCounter reports whether r can be incremented through activity reports.
func IsCounter(r Requirement) bool {
	return slices.Contains(Counters, r)
}

// Achievement is a milestone unlocked once a statistic reaches Count.
type Achievement struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Requirement Requirement `json:"requirement"`
	Count       int         `json:"count"`
}

// Catalog is every achievement in display order.
var Catalog = []Achievement{
	{ID: "first_page", Title: "First Steps", Description: "Read your first page", Icon: "📖", Requirement: PagesRead, Count: 1},
	{ID: "practice_master", Title: "Practice Master", Description: "Complete 10 practice sessions", Icon: "✍️", Requirement: PracticeSessions, Count: 10},
	{ID: "streak_week", Title: "Week Warrior", Description: "Maintain a 7-day learning streak", Icon: "🔥", Requirement: StreakDays, Count: 7},
	{ID: "first_book", Title: "Book Champion", Description: "Complete your first book", Icon: "🏆", Requirement: BooksCompleted, Count: 1},
	{ID: "quran_beginner", Title: "Quran Explorer", Description: "Read 10 verses in the Quran", Icon: "🌟", Requirement: QuranVerses, Count: 10},
	{ID: "dedication", Title: "Dedicated Learner", Description: "Maintain a 30-day learning streak", Icon: "👑", Requirement: StreakDays, Count: 30},
	{ID: "letter_learner", Title: "Letter Learner", Description: "Learn 10 letters through review", Icon: "🔤", Requirement: LearnedItems, Count: 10},
}

// Lookup returns the catalog entry with the given id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range Catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Stats holds the current value of each requirement.
type Stats map[Requirement]int

// Evaluate returns the achievements that stats satisfy and that are not in unlocked,
// in catalog order.
func Evaluate(stats Stats, unlocked []string) []Achievement {
	var earned []Achievement
	for _, a := range Catalog {
		if slices.Contains(unlocked, a.ID) {
			continue
		}
		if stats[a.Requirement] >= a.Count {
			earned = append(earned, a)
		}
	}
	return earned
}

// Streak counts consecutive calendar days with activity.
type Streak struct {
	Days     int    `json:"days"`
	LastDate string `json:"last_date"` // DateLayout, empty before the first activity
}

// Touch records activity on the calendar day of today (UTC) and returns the new streak.
// The next day extends the streak, a longer gap restarts it at one and the same day is a no-op.
func (s Streak) Touch(today time.Time) Streak {
	date := today.UTC().Format(DateLayout)
	if s.LastDate == "" {
		return Streak{Days: 1, LastDate: date}
	}
	last, err := time.Parse(DateLayout, s.LastDate)
	if err != nil {
		return Streak{Days: 1, LastDate: date}
	}
	current, _ := time.Parse(DateLayout, date)

	switch diff := int(current.Sub(last).Hours() / 24); {
	case diff == 1:
		return Streak{Days: s.Days + 1, LastDate: date}
	case diff > 1:
		return Streak{Days: 1, LastDate: date}
	default:
		return s
	}
}
