// Package memory provides in-memory storage implementations for
// development and testing.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/brandloom/shopify-insights/internal/insights"
)

// ErrNotFound is returned when no snapshot exists for a store.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore keeps snapshots per store URL, newest last.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]insights.Snapshot
}

// NewSnapshotStore constructs a SnapshotStore.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string][]insights.Snapshot),
	}
}

// SaveSnapshot appends a snapshot for its store URL.
func (s *SnapshotStore) SaveSnapshot(_ context.Context, snapshot insights.Snapshot) error {
	if snapshot.StoreURL == "" {
		return errors.New("snapshot store url is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.StoreURL] = append(s.snapshots[snapshot.StoreURL], snapshot)
	return nil
}

// LatestSnapshot returns the most recently saved snapshot for a store.
func (s *SnapshotStore) LatestSnapshot(_ context.Context, storeURL string) (insights.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.snapshots[storeURL]
	if len(list) == 0 {
		return insights.Snapshot{}, ErrNotFound
	}
	return list[len(list)-1], nil
}
