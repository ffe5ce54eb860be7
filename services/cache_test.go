package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodepulse/models"
)

func newRosterCache(t *testing.T) (*CacheService, func()) {
	t.Helper()

	now := time.Now().Unix()
	srv, _ := fakeNode(t, map[string]any{
		"get-pods": models.PodsResponse{
			Pods:       []models.Pod{{Address: "1.1.1.1:9000", Version: "0.8.0", LastSeenTimestamp: now}},
			TotalCount: 1,
		},
		"get-stats": models.StatsResponse{FileSize: 100},
	})

	cfg := testConfig(hostOf(srv))
	client := NewPRPCClient(cfg)
	storage := NewStorageSync(cfg, client, nil, nil)
	stats := NewStatsSync(cfg, client, storage, nil)
	agg := NewAggregator(cfg, client, nil, storage, stats, nil)

	return NewCacheService(cfg, agg), srv.Close
}

func TestCacheReadThrough(t *testing.T) {
	cache, _ := newRosterCache(t)

	assert.Equal(t, CacheModeMemory, cache.Mode())

	roster, stale, err := cache.GetRoster(context.Background())
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, 1, roster.Summary.TotalKnown)
}

func TestCacheServesFromMemoryWhileSeedDown(t *testing.T) {
	cache, closeSeed := newRosterCache(t)

	_, _, err := cache.GetRoster(context.Background())
	require.NoError(t, err)

	closeSeed()

	// Within the TTL the cached copy still serves without a rebuild.
	roster, stale, err := cache.GetRoster(context.Background())
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, 1, roster.Summary.TotalKnown)
}

func TestCacheServesStaleAfterClear(t *testing.T) {
	cache, closeSeed := newRosterCache(t)

	_, _, err := cache.GetRoster(context.Background())
	require.NoError(t, err)

	closeSeed()
	require.NoError(t, cache.Clear(context.Background()))

	// Rebuild fails with the seed down; the last good roster is served stale.
	roster, stale, err := cache.GetRoster(context.Background())
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, 1, roster.Summary.TotalKnown)
}

func TestCacheErrorsWithNothingCached(t *testing.T) {
	cfg := testConfig("127.0.0.1:1")
	cfg.PRPC.TimeoutMs = 200
	client := NewPRPCClient(cfg)
	storage := NewStorageSync(cfg, client, nil, nil)
	stats := NewStatsSync(cfg, client, storage, nil)
	cache := NewCacheService(cfg, NewAggregator(cfg, client, nil, storage, stats, nil))

	_, _, err := cache.GetRoster(context.Background())
	assert.Error(t, err)
}
