// Package notification builds the typed messages the progress service delivers to learners.
package notification

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Kind tags a notification and selects the shape of its payload.
type Kind string

const (
	KindAchievement Kind = "achievement"
	KindChallenge   Kind = "challenge"
	KindLevelUp     Kind = "level_up"
	KindStreak      Kind = "streak"
	KindReminder    Kind = "reminder"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindAchievement, KindChallenge, KindLevelUp, KindStreak, KindReminder:
		return true
	}
	return false
}

// Payload carries the kind-specific details. Only the fields of the message's kind are set.
type Payload struct {
	AchievementID string `json:"achievement_id,omitempty"`
	ChallengeID   string `json:"challenge_id,omitempty"`
	XP            int    `json:"xp,omitempty"`
	Level         int    `json:"level,omitempty"`
	Streak        int    `json:"streak,omitempty"`
	DueCount      int    `json:"due_count,omitempty"`
}

// Message is a notification before it is stored.
type Message struct {
	Kind    Kind
	Title   string
	Body    string
	Payload Payload
}

// EncodePayload returns the JSON stored alongside the notification.
func (m Message) EncodePayload() (string, error) {
	b, err := json.Marshal(m.Payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal notification payload")
	}
	return string(b), nil
}

// DecodePayload parses a stored payload. An empty string yields the zero payload.
func DecodePayload(s string) (Payload, error) {
	var p Payload
	if s == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return p, errors.Wrap(err, "failed to unmarshal notification payload")
	}
	return p, nil
}

func Achievement(id, title, description string) Message {
	return Message{
		Kind:    KindAchievement,
		Title:   "Achievement unlocked: " + title,
		Body:    description,
		Payload: Payload{AchievementID: id},
	}
}

func ChallengeCompleted(id string, xp int) Message {
	return Message{
		Kind:    KindChallenge,
		Title:   "Daily challenge completed",
		Body:    fmt.Sprintf("You earned %d XP.", xp),
		Payload: Payload{ChallengeID: id, XP: xp},
	}
}

func LevelUp(level int) Message {
	return Message{
		Kind:    KindLevelUp,
		Title:   fmt.Sprintf("Level %d reached", level),
		Body:    "Keep practicing to unlock the next level.",
		Payload: Payload{Level: level},
	}
}

func Streak(days int) Message {
	return Message{
		Kind:    KindStreak,
		Title:   fmt.Sprintf("%d day streak", days),
		Body:    fmt.Sprintf("You have practiced %d days in a row.", days),
		Payload: Payload{Streak: days},
	}
}

func Reminder(dueCount int) Message {
	return Message{
		Kind:    KindReminder,
		Title:   "Reviews waiting",
		Body:    fmt.Sprintf("%d items are due for review.", dueCount),
		Payload: Payload{DueCount: dueCount},
	}
}
