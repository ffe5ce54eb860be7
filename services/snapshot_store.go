package services

import (
	"context"
	"log"
	"sync"
	"time"

	"pnodepulse/models"
)

const snapshotRetention = 30 * 24 * time.Hour

// SnapshotStore keeps the network health snapshot series in memory with a
// rolling 30-day retention window. Snapshots older than the window are pruned
// lazily on every read and write. When a MongoStore is attached, appends are
// mirrored there and the series is reloaded on boot.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots []models.Snapshot
	mongo     *MongoStore
}

func NewSnapshotStore(mongo *MongoStore) *SnapshotStore {
	s := &SnapshotStore{mongo: mongo}
	s.reload()
	return s
}

func (s *SnapshotStore) reload() {
	if !s.mongo.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-snapshotRetention).UnixMilli()
	snapshots, err := s.mongo.LoadSnapshotsSince(ctx, cutoff)
	if err != nil {
		log.Printf("[SnapshotStore] Failed to reload snapshots: %v", err)
		return
	}
	s.mu.Lock()
	s.snapshots = snapshots
	s.mu.Unlock()
	log.Printf("[SnapshotStore] Reloaded %d snapshots from MongoDB", len(snapshots))
}

// pruneLocked drops snapshots past retention. Caller holds the write lock.
func (s *SnapshotStore) pruneLocked(now time.Time) {
	cutoff := now.Add(-snapshotRetention).UnixMilli()
	idx := 0
	for idx < len(s.snapshots) && s.snapshots[idx].Timestamp < cutoff {
		idx++
	}
	if idx > 0 {
		s.snapshots = s.snapshots[idx:]
		if s.mongo.Enabled() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.mongo.DeleteSnapshotsBefore(ctx, cutoff); err != nil {
				log.Printf("[SnapshotStore] Failed to prune MongoDB snapshots: %v", err)
			}
		}
	}
}

// Append records a snapshot and prunes expired ones.
func (s *SnapshotStore) Append(snapshot models.Snapshot) {
	s.mu.Lock()
	s.pruneLocked(time.Now())
	s.snapshots = append(s.snapshots, snapshot)
	s.mu.Unlock()

	if s.mongo.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.mongo.InsertSnapshot(ctx, &snapshot); err != nil {
			log.Printf("[SnapshotStore] Failed to persist snapshot: %v", err)
		}
	}
}

// Since returns snapshots with timestamp >= since (epoch millis), oldest first.
func (s *SnapshotStore) Since(since int64) []models.Snapshot {
	s.mu.Lock()
	s.pruneLocked(time.Now())
	out := make([]models.Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		if snap.Timestamp >= since {
			out = append(out, snap)
		}
	}
	s.mu.Unlock()
	return out
}

// Range returns snapshots with start <= timestamp <= end, oldest first.
func (s *SnapshotStore) Range(start, end int64) []models.Snapshot {
	s.mu.Lock()
	s.pruneLocked(time.Now())
	out := make([]models.Snapshot, 0)
	for _, snap := range s.snapshots {
		if snap.Timestamp >= start && snap.Timestamp <= end {
			out = append(out, snap)
		}
	}
	s.mu.Unlock()
	return out
}

// Latest returns the most recent snapshot, or false when the store is empty.
func (s *SnapshotStore) Latest() (models.Snapshot, bool) {
	s.mu.Lock()
	s.pruneLocked(time.Now())
	n := len(s.snapshots)
	if n == 0 {
		s.mu.Unlock()
		return models.Snapshot{}, false
	}
	latest := s.snapshots[n-1]
	s.mu.Unlock()
	return latest, true
}

// Count reports how many snapshots are currently retained.
func (s *SnapshotStore) Count() int {
	s.mu.Lock()
	s.pruneLocked(time.Now())
	n := len(s.snapshots)
	s.mu.Unlock()
	return n
}
