package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHistoryInvalidRange(t *testing.T) {
	history := NewHistoryService(NewSnapshotStore(nil))

	_, err := history.BuildHistory("7d")
	assert.Error(t, err)
}

func TestBuildHistoryEmptyStoreIsAllSynthetic(t *testing.T) {
	history := NewHistoryService(NewSnapshotStore(nil))

	resp, err := history.BuildHistory("1h")
	require.NoError(t, err)

	assert.Equal(t, 30, resp.TotalPoints)
	assert.Len(t, resp.Data, 30)
	assert.Equal(t, 0, resp.RealDataPoints)
	assert.False(t, resp.HasRealData)
	assert.Equal(t, "1h", resp.Range)

	for _, p := range resp.Data {
		assert.True(t, p.Synthetic)
	}
}

func TestBuildHistoryPointCounts(t *testing.T) {
	history := NewHistoryService(NewSnapshotStore(nil))

	for rangeStr, want := range map[string]int{"1h": 30, "24h": 24, "30d": 30} {
		resp, err := history.BuildHistory(rangeStr)
		require.NoError(t, err)
		assert.Equal(t, want, resp.TotalPoints, "range %s", rangeStr)
		assert.Len(t, resp.Data, want, "range %s", rangeStr)
	}
}

func TestBuildHistoryBucketsRealSnapshots(t *testing.T) {
	store := NewSnapshotStore(nil)
	history := NewHistoryService(store)
	now := time.Now()

	// Two snapshots in the same 2-minute bucket average together.
	bucketStart := now.Add(-10 * time.Minute).Truncate(2 * time.Minute)
	store.Append(snapshotAt(bucketStart.Add(10*time.Second), 80))
	store.Append(snapshotAt(bucketStart.Add(70*time.Second), 90))

	resp, err := history.BuildHistory("1h")
	require.NoError(t, err)

	assert.True(t, resp.HasRealData)
	assert.GreaterOrEqual(t, resp.RealDataPoints, 1)

	found := false
	for _, p := range resp.Data {
		if !p.Synthetic && p.NetworkHealth == 85 {
			found = true
		}
	}
	assert.True(t, found, "averaged bucket value present in series")
}

func TestBuildHistoryCarriesLatestIntoCurrentBucket(t *testing.T) {
	store := NewSnapshotStore(nil)
	history := NewHistoryService(store)

	// One snapshot well before the current bucket: the newest point should
	// still be real, carrying the latest snapshot forward.
	store.Append(snapshotAt(time.Now().Add(-20*time.Minute), 77))

	resp, err := history.BuildHistory("1h")
	require.NoError(t, err)

	last := resp.Data[len(resp.Data)-1]
	assert.False(t, last.Synthetic)
	assert.Equal(t, 77, last.NetworkHealth)
}
