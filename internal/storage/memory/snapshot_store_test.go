package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brandloom/shopify-insights/internal/insights"
)

func TestSnapshotStore_LatestReturnsNewest(t *testing.T) {
	t.Parallel()

	store := NewSnapshotStore()
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, insights.Snapshot{
		ID:         "snap-1",
		StoreURL:   "https://shop.example.com",
		CapturedAt: time.Unix(100, 0),
	}))
	require.NoError(t, store.SaveSnapshot(ctx, insights.Snapshot{
		ID:         "snap-2",
		StoreURL:   "https://shop.example.com",
		CapturedAt: time.Unix(200, 0),
	}))

	got, err := store.LatestSnapshot(ctx, "https://shop.example.com")
	require.NoError(t, err)
	require.Equal(t, "snap-2", got.ID)
}

func TestSnapshotStore_MissingStore(t *testing.T) {
	t.Parallel()

	store := NewSnapshotStore()
	_, err := store.LatestSnapshot(context.Background(), "https://unknown.example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotStore_RejectsEmptyStoreURL(t *testing.T) {
	t.Parallel()

	store := NewSnapshotStore()
	require.Error(t, store.SaveSnapshot(context.Background(), insights.Snapshot{ID: "snap-1"}))
}
