// Package challenge manages the four daily practice challenges and their completion streak.
package challenge

import (
	"errors"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// historyLimit bounds the number of completed challenges kept.
	historyLimit = 40
)

var ErrNotFound = errors.New("challenge: not found")

// Type is the activity a challenge asks for.
type Type string

const (
	Writing       Type = "writing"
	Pattern       Type = "pattern"
	Pronunciation Type = "pronunciation"
	Quiz          Type = "quiz"
)

// Reward is the XP granted on completion plus the bonus granted while a streak is running.
type Reward struct {
	XP          int `json:"xp"`
	StreakBonus int `json:"streak_bonus"`
}

type Challenge struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Type      Type   `json:"type"`
	Completed bool   `json:"completed"`
	Progress  int    `json:"progress"`
	Reward    Reward `json:"reward"`
}

var rewards = []struct {
	typ    Type
	reward Reward
}{
	{Writing, Reward{XP: 50, StreakBonus: 10}},
	{Pattern, Reward{XP: 30, StreakBonus: 5}},
	{Pronunciation, Reward{XP: 40, StreakBonus: 8}},
	{Quiz, Reward{XP: 60, StreakBonus: 12}},
}

// Generate returns the challenges for the UTC calendar day of now.
func Generate(now time.Time) []Challenge {
	date := now.UTC().Format(dateLayout)
	challenges := make([]Challenge, 0, len(rewards))
	for _, r := range rewards {
		challenges = append(challenges, Challenge{
			ID:     string(r.typ) + "-" + date,
			Date:   date,
			Type:   r.typ,
			Reward: r.reward,
		})
	}
	return challenges
}

// State is a learner's challenge board. It is persisted as part of their progress.
type State struct {
	Current           []Challenge `json:"current"`
	Completed         []Challenge `json:"completed"`
	Streak            int         `json:"streak"`
	LastCompletedDate string      `json:"last_completed_date"`
}

// Refresh replaces the open challenges with today's set when the day has changed.
// It reports whether the board was regenerated.
func (s *State) Refresh(now time.Time) bool {
	date := now.UTC().Format(dateLayout)
	if len(s.Current) > 0 && s.Current[0].Date == date {
		return false
	}
	if s.completedOn(date) {
		return false
	}
	s.Current = Generate(now)
	return true
}

func (s *State) completedOn(date string) bool {
	if len(s.Current) > 0 {
		return false
	}
	for _, c := range s.Completed {
		if c.Date == date {
			return true
		}
	}
	return false
}

// Complete moves the challenge to the completed list and updates the completion streak:
// completing on the day after the last completion extends it, any other new day restarts it
// at one, and further completions on the same day leave it unchanged.
func (s *State) Complete(id string, now time.Time) (Challenge, error) {
	idx := s.index(id)
	if idx < 0 {
		return Challenge{}, ErrNotFound
	}

	today := now.UTC()
	date := today.Format(dateLayout)
	if s.LastCompletedDate != date {
		yesterday := today.AddDate(0, 0, -1).Format(dateLayout)
		if s.LastCompletedDate == yesterday {
			s.Streak++
		} else {
			s.Streak = 1
		}
	}
	s.LastCompletedDate = date

	c := s.Current[idx]
	c.Completed = true
	c.Progress = 100
	s.Current = append(s.Current[:idx:idx], s.Current[idx+1:]...)
	s.Completed = append(s.Completed, c)
	if n := len(s.Completed); n > historyLimit {
		s.Completed = s.Completed[n-historyLimit:]
	}
	return c, nil
}

// UpdateProgress sets the progress of an open challenge, capped at 100.
func (s *State) UpdateProgress(id string, progress int) (Challenge, error) {
	idx := s.index(id)
	if idx < 0 {
		return Challenge{}, ErrNotFound
	}
	s.Current[idx].Progress = max(0, min(100, progress))
	return s.Current[idx], nil
}

// StreakBonus is the percentage bonus for the current streak: 20 per full week, at most 100.
func (s *State) StreakBonus() int {
	return min(s.Streak/7*20, 100)
}

// EarnedXP is the XP granted for completing c with the current streak. The challenge's own
// streak bonus applies once the streak has passed one day, then the percentage bonus scales
// the total.
func (s *State) EarnedXP(c Challenge) int {
	xp := c.Reward.XP
	if s.Streak > 1 {
		xp += c.Reward.StreakBonus
	}
	return xp * (100 + s.StreakBonus()) / 100
}

func (s *State) index(id string) int {
	for i, c := range s.Current {
		if c.ID == id {
			return i
		}
	}
	return -1
}
