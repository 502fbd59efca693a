package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fayaz1010/Iqra/store"
)

func TestReviewLogStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	logs := []*store.ReviewLog{
		{UserID: "log-amina", ItemUID: "ba", Quality: 5, Points: 10, ReviewedTs: 1_000},
		{UserID: "log-amina", ItemUID: "ta", Quality: 2, Points: 0, ReviewedTs: 2_000},
		{UserID: "log-bilal", ItemUID: "ba", Quality: 4, Points: 8, ReviewedTs: 3_000},
		{UserID: "log-bilal", ItemUID: "ta", Quality: 4, Points: 8, ReviewedTs: 4_000},
		{UserID: "log-chen", ItemUID: "ba", Quality: 3, Points: 6, ReviewedTs: 100},
	}
	for _, log := range logs {
		created, err := ts.CreateReviewLog(ctx, log)
		require.NoError(t, err)
		require.NotZero(t, created.ID)
	}

	userID := "log-amina"
	list, err := ts.ListReviewLogs(ctx, &store.FindReviewLog{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "ta", list[0].ItemUID, "newest first")

	since := int64(1_500)
	list, err = ts.ListReviewLogs(ctx, &store.FindReviewLog{UserID: &userID, SinceTs: &since})
	require.NoError(t, err)
	require.Len(t, list, 1)

	rows, err := ts.ListLeaderboardRows(ctx, &store.FindLeaderboard{SinceTs: 500, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "log-bilal", rows[0].UserID)
	require.Equal(t, 16, rows[0].Score)
	require.Equal(t, int64(4_000), rows[0].LastReviewedTs)
	require.Equal(t, "log-amina", rows[1].UserID)
	require.Equal(t, 10, rows[1].Score)

	rows, err = ts.ListLeaderboardRows(ctx, &store.FindLeaderboard{Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "log-bilal", rows[0].UserID)
}

func TestReviewLogStore_DefaultsReviewTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateReviewLog(ctx, &store.ReviewLog{UserID: "log-now", ItemUID: "ba", Quality: 3, Points: 6})
	require.NoError(t, err)
	require.NotZero(t, created.ReviewedTs)
}
