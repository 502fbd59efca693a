package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fayaz1010/Iqra/plugin/challenge"
	"github.com/fayaz1010/Iqra/plugin/notification"
	"github.com/fayaz1010/Iqra/store"
)

func decodeChallenges(p *store.UserProgress) (*challenge.State, error) {
	state := &challenge.State{}
	if p.Challenges == "" {
		return state, nil
	}
	if err := json.Unmarshal([]byte(p.Challenges), state); err != nil {
		return nil, fmt.Errorf("failed to decode challenges of %s: %w", p.UserID, err)
	}
	return state, nil
}

func encodeChallenges(p *store.UserProgress, state *challenge.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode challenges of %s: %w", p.UserID, err)
	}
	p.Challenges = string(b)
	return nil
}

func convertChallenges(state *challenge.State) *Challenges {
	c := &Challenges{
		Current:     state.Current,
		Completed:   state.Completed,
		Streak:      state.Streak,
		StreakBonus: state.StreakBonus(),
	}
	if c.Current == nil {
		c.Current = []challenge.Challenge{}
	}
	if c.Completed == nil {
		c.Completed = []challenge.Challenge{}
	}
	return c
}

// GetChallenges returns today's board, generating it on the first request of the day.
func (s *service) GetChallenges(ctx context.Context, userID string) (*Challenges, error) {
	var state *challenge.State
	_, err := s.update(ctx, userID, func(p *store.UserProgress, now time.Time) ([]notification.Message, error) {
		var err error
		if state, err = decodeChallenges(p); err != nil {
			return nil, err
		}
		if !state.Refresh(now) {
			return nil, errUnchanged
		}
		return nil, encodeChallenges(p, state)
	})
	if err != nil {
		return nil, err
	}
	return convertChallenges(state), nil
}

func (s *service) CompleteChallenge(ctx context.Context, userID, challengeID string) (*ChallengeResult, error) {
	result := &ChallengeResult{}
	p, err := s.update(ctx, userID, func(p *store.UserProgress, now time.Time) ([]notification.Message, error) {
		state, err := decodeChallenges(p)
		if err != nil {
			return nil, err
		}
		state.Refresh(now)
		completed, err := state.Complete(challengeID, now)
		if err != nil {
			return nil, err
		}
		if err := encodeChallenges(p, state); err != nil {
			return nil, err
		}

		result.Challenge = completed
		result.EarnedXP = state.EarnedXP(completed)
		result.Streak = state.Streak
		p.XP += result.EarnedXP

		messages := []notification.Message{notification.ChallengeCompleted(completed.ID, result.EarnedXP)}
		messages = append(messages, touchStreak(p, now)...)
		_, earned := unlockAchievements(p)
		messages = append(messages, earned...)
		return append(messages, applyLevel(p)...), nil
	})
	if err != nil {
		return nil, err
	}
	s.boards.Clear(ctx)
	result.Progress = convertProgressFromStore(p)
	return result, nil
}

func (s *service) UpdateChallengeProgress(ctx context.Context, userID, challengeID string, progress int) (*challenge.Challenge, error) {
	var updated challenge.Challenge
	_, err := s.update(ctx, userID, func(p *store.UserProgress, now time.Time) ([]notification.Message, error) {
		state, err := decodeChallenges(p)
		if err != nil {
			return nil, err
		}
		state.Refresh(now)
		if updated, err = state.UpdateProgress(challengeID, progress); err != nil {
			return nil, err
		}
		return nil, encodeChallenges(p, state)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
