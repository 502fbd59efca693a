package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindIsValid(t *testing.T) {
	for _, k := range []Kind{KindAchievement, KindChallenge, KindLevelUp, KindStreak, KindReminder} {
		assert.True(t, k.IsValid(), k)
	}
	assert.False(t, Kind("friend_request").IsValid())
}

func TestPayloadRoundTrip(t *testing.T) {
	m := ChallengeCompleted("quiz-2026-05-10", 72)
	raw, err := m.EncodePayload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"challenge_id":"quiz-2026-05-10","xp":72}`, raw)

	p, err := DecodePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, m.Payload, p)
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload("")
	require.NoError(t, err)
	assert.Equal(t, Payload{}, p)

	_, err = DecodePayload("{")
	assert.Error(t, err)
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, KindLevelUp, LevelUp(3).Kind)
	assert.Equal(t, 3, LevelUp(3).Payload.Level)
	assert.Equal(t, "7 day streak", Streak(7).Title)
	assert.Equal(t, 12, Reminder(12).Payload.DueCount)

	a := Achievement("first_page", "First Steps", "Read your first page")
	assert.Equal(t, "Achievement unlocked: First Steps", a.Title)
	assert.Equal(t, "first_page", a.Payload.AchievementID)
}
