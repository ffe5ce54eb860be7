package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pnodepulse/models"
)

func snapshotAt(ts time.Time, health int) models.Snapshot {
	return models.Snapshot{
		Timestamp:     ts.UnixMilli(),
		NetworkHealth: health,
		ActiveNodes:   40,
		TotalNodes:    50,
		RiskScore:     90,
		RiskLevel:     models.RiskLow,
	}
}

func TestSnapshotStoreAppendAndSince(t *testing.T) {
	store := NewSnapshotStore(nil)
	now := time.Now()

	store.Append(snapshotAt(now.Add(-2*time.Hour), 80))
	store.Append(snapshotAt(now.Add(-time.Hour), 85))
	store.Append(snapshotAt(now, 90))

	all := store.Since(0)
	assert.Len(t, all, 3)

	recent := store.Since(now.Add(-90 * time.Minute).UnixMilli())
	assert.Len(t, recent, 2)
	assert.Equal(t, 85, recent[0].NetworkHealth)
	assert.Equal(t, 90, recent[1].NetworkHealth)
}

func TestSnapshotStoreRange(t *testing.T) {
	store := NewSnapshotStore(nil)
	now := time.Now()

	store.Append(snapshotAt(now.Add(-3*time.Hour), 70))
	store.Append(snapshotAt(now.Add(-2*time.Hour), 80))
	store.Append(snapshotAt(now, 90))

	window := store.Range(
		now.Add(-150*time.Minute).UnixMilli(),
		now.Add(-90*time.Minute).UnixMilli(),
	)
	assert.Len(t, window, 1)
	assert.Equal(t, 80, window[0].NetworkHealth)
}

func TestSnapshotStoreRetention(t *testing.T) {
	store := NewSnapshotStore(nil)
	now := time.Now()

	store.Append(snapshotAt(now.Add(-31*24*time.Hour), 70))
	store.Append(snapshotAt(now.Add(-29*24*time.Hour), 75))
	store.Append(snapshotAt(now, 90))

	all := store.Since(0)
	assert.Len(t, all, 2, "snapshots older than 30 days are pruned")
	assert.Equal(t, 75, all[0].NetworkHealth)
}

func TestSnapshotStoreLatest(t *testing.T) {
	store := NewSnapshotStore(nil)

	_, ok := store.Latest()
	assert.False(t, ok)

	now := time.Now()
	store.Append(snapshotAt(now.Add(-time.Minute), 80))
	store.Append(snapshotAt(now, 95))

	latest, ok := store.Latest()
	assert.True(t, ok)
	assert.Equal(t, 95, latest.NetworkHealth)
	assert.Equal(t, 2, store.Count())
}
