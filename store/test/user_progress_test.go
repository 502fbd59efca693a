package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fayaz1010/Iqra/store"
)

func TestUserProgressStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	progress, err := ts.GetUserProgress(ctx, "progress-amina")
	require.NoError(t, err)
	require.Nil(t, progress)

	created, err := ts.UpsertUserProgress(ctx, &store.UserProgress{
		UserID:     "progress-amina",
		XP:         120,
		Level:      2,
		StreakDays: 3,
		Counters:   map[string]int{"pages_read": 4},
	})
	require.NoError(t, err)
	require.Equal(t, "{}", created.Challenges)

	progress, err = ts.GetUserProgress(ctx, "progress-amina")
	require.NoError(t, err)
	require.NotNil(t, progress)
	require.Equal(t, 120, progress.XP)
	require.Equal(t, 4, progress.Counters["pages_read"])

	_, err = ts.UpsertUserProgress(ctx, &store.UserProgress{
		UserID:               "progress-amina",
		XP:                   230,
		Level:                3,
		UnlockedAchievements: []string{"first_page"},
		Counters:             map[string]int{"pages_read": 9},
		Challenges:           `{"streak":2}`,
	})
	require.NoError(t, err)

	progress, err = ts.GetUserProgress(ctx, "progress-amina")
	require.NoError(t, err)
	require.Equal(t, 230, progress.XP)
	require.Equal(t, []string{"first_page"}, progress.UnlockedAchievements)
	require.JSONEq(t, `{"streak":2}`, progress.Challenges)

	_, err = ts.UpsertUserProgress(ctx, &store.UserProgress{UserID: "progress-bilal", Level: 1})
	require.NoError(t, err)

	// Listing reads the database, bypassing the cache.
	list, err := ts.ListUserProgress(ctx, &store.FindUserProgress{UserIDs: []string{"progress-amina", "progress-bilal", "missing"}})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "progress-amina", list[0].UserID)
	require.Equal(t, []string{"first_page"}, list[0].UnlockedAchievements)
	require.Empty(t, list[1].UnlockedAchievements)
	require.NotNil(t, list[1].Counters)

	require.Positive(t, ts.CacheStats().L1Hits)
}
