package insights

import (
	"context"
	"time"
)

// Fetcher retrieves one URL and classifies the outcome. Implementations
// retry transient failures internally; the returned error is reserved for
// context cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResult, error)
}

// SnapshotStore persists finished BrandContext records. The pipeline never
// depends on persistence succeeding.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
	LatestSnapshot(ctx context.Context, storeURL string) (Snapshot, error)
}

// BlobStore archives raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for deduplication/integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces snapshot IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
