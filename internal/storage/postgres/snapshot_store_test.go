package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/brandloom/shopify-insights/internal/insights"
)

func testSnapshot(t *testing.T) (insights.Snapshot, []byte) {
	t.Helper()
	bc := insights.NewBrandContext("https://shop.example.com")
	bc.BrandName = "Glow Brand"
	bc.ExtractedAt = time.Unix(1700000000, 0).UTC()
	contextJSON, err := json.Marshal(bc)
	require.NoError(t, err)
	return insights.Snapshot{
		ID:          "uuid-v7",
		StoreURL:    "https://shop.example.com",
		CapturedAt:  bc.ExtractedAt,
		ContentHash: "abc123",
		BlobURI:     "gs://bucket/path",
		Context:     bc,
	}, contextJSON
}

func TestSaveSnapshotInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewSnapshotStoreWithPool(mock, "brand_snapshots")
	require.NoError(t, err)

	snapshot, contextJSON := testSnapshot(t)

	mock.ExpectExec("INSERT INTO brand_snapshots").
		WithArgs(
			snapshot.ID,
			snapshot.StoreURL,
			snapshot.CapturedAt,
			snapshot.ContentHash,
			snapshot.BlobURI,
			contextJSON,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveSnapshot(context.Background(), snapshot))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSnapshotRequiresIDAndStore(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewSnapshotStoreWithPool(mock, "brand_snapshots")
	require.NoError(t, err)

	err = store.SaveSnapshot(context.Background(), insights.Snapshot{StoreURL: "https://x"})
	require.Error(t, err)
	err = store.SaveSnapshot(context.Background(), insights.Snapshot{ID: "id"})
	require.Error(t, err)
}

func TestLatestSnapshotScansRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewSnapshotStoreWithPool(mock, "brand_snapshots")
	require.NoError(t, err)

	snapshot, contextJSON := testSnapshot(t)

	mock.ExpectQuery("SELECT id, store_url, captured_at, content_hash, blob_uri, context").
		WithArgs(snapshot.StoreURL).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "store_url", "captured_at", "content_hash", "blob_uri", "context",
		}).AddRow(
			snapshot.ID,
			snapshot.StoreURL,
			snapshot.CapturedAt,
			snapshot.ContentHash,
			snapshot.BlobURI,
			contextJSON,
		))

	got, err := store.LatestSnapshot(context.Background(), snapshot.StoreURL)
	require.NoError(t, err)
	require.Equal(t, snapshot.ID, got.ID)
	require.Equal(t, snapshot.ContentHash, got.ContentHash)
	require.NotNil(t, got.Context)
	require.Equal(t, "Glow Brand", got.Context.BrandName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestSnapshotNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewSnapshotStoreWithPool(mock, "brand_snapshots")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, store_url").
		WithArgs("https://unknown.example.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "store_url", "captured_at", "content_hash", "blob_uri", "context",
		}))

	_, err = store.LatestSnapshot(context.Background(), "https://unknown.example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewSnapshotStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewSnapshotStoreWithPool(mock, "snapshots; DROP TABLE users")
	require.Error(t, err)
}
