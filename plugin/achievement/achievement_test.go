package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d.Add(15 * time.Hour)
}

func ids(achievements []Achievement) []string {
	var out []string
	for _, a := range achievements {
		out = append(out, a.ID)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		stats    Stats
		unlocked []string
		want     []string
	}{
		{
			name:  "nothing yet",
			stats: Stats{},
			want:  nil,
		},
		{
			name:  "thresholds are inclusive",
			stats: Stats{PagesRead: 1, PracticeSessions: 10, QuranVerses: 9},
			want:  []string{"first_page", "practice_master"},
		},
		{
			name:  "long streak unlocks both streak achievements",
			stats: Stats{StreakDays: 30},
			want:  []string{"streak_week", "dedication"},
		},
		{
			name:     "already unlocked are not repeated",
			stats:    Stats{StreakDays: 30, LearnedItems: 12},
			unlocked: []string{"streak_week"},
			want:     []string{"dedication", "letter_learner"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Evaluate(tt.stats, tt.unlocked)))
		})
	}
}

func TestLookup(t *testing.T) {
	a, ok := Lookup("first_book")
	require.True(t, ok)
	assert.Equal(t, BooksCompleted, a.Requirement)
	assert.Equal(t, 1, a.Count)

	_, ok = Lookup("missing")
	assert.False(t, ok)
}

func TestIsCounter(t *testing.T) {
	assert.True(t, IsCounter(PagesRead))
	assert.True(t, IsCounter(QuranVerses))
	assert.False(t, IsCounter(StreakDays))
	assert.False(t, IsCounter(LearnedItems))
	assert.False(t, IsCounter("xp"))
}

func TestStreakTouch(t *testing.T) {
	var s Streak

	s = s.Touch(date(t, "2026-03-01"))
	assert.Equal(t, Streak{Days: 1, LastDate: "2026-03-01"}, s)

	s = s.Touch(date(t, "2026-03-01"))
	assert.Equal(t, 1, s.Days, "same day is a no-op")

	s = s.Touch(date(t, "2026-03-02"))
	s = s.Touch(date(t, "2026-03-03"))
	assert.Equal(t, Streak{Days: 3, LastDate: "2026-03-03"}, s)

	s = s.Touch(date(t, "2026-03-05"))
	assert.Equal(t, Streak{Days: 1, LastDate: "2026-03-05"}, s)
}

func TestStreakTouch_AcrossMonthBoundary(t *testing.T) {
	s := Streak{Days: 4, LastDate: "2026-02-28"}
	assert.Equal(t, 5, s.Touch(date(t, "2026-03-01")).Days)
}

func TestStreakTouch_CorruptDateRestarts(t *testing.T) {
	s := Streak{Days: 9, LastDate: "yesterday"}
	assert.Equal(t, Streak{Days: 1, LastDate: "2026-03-01"}, s.Touch(date(t, "2026-03-01")))
}
