package services

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodepulse/models"
)

func TestStatsSyncPollsPublicPodsOnly(t *testing.T) {
	srv, hits := fakeNode(t, map[string]any{
		"get-stats": models.StatsResponse{
			CPUPercent:    42.5,
			RAMUsed:       1024,
			RAMTotal:      4096,
			ActiveStreams: 3,
		},
	})

	_, portStr, err := net.SplitHostPort(hostOf(srv))
	require.NoError(t, err)
	port, _ := strconv.Atoi(portStr)

	cfg := testConfig(hostOf(srv))
	client := NewPRPCClient(cfg)
	storage := NewStorageSync(cfg, client, nil, nil)

	storage.entries["127.0.0.1:9000"] = models.StorageEntry{
		Address:  "127.0.0.1:9000",
		IsPublic: true,
		RpcPort:  port,
	}
	storage.entries["10.0.0.2:9000"] = models.StorageEntry{
		Address:  "10.0.0.2:9000",
		IsPublic: false,
		RpcPort:  port,
	}
	storage.entries["10.0.0.3:9000"] = models.StorageEntry{
		Address:  "10.0.0.3:9000",
		IsPublic: true,
		RpcPort:  0, // public but no advertised rpc port
	}

	stats := NewStatsSync(cfg, client, storage, nil)
	stats.SyncNow()

	entry, ok := stats.Get("127.0.0.1:9000")
	require.True(t, ok)
	assert.Equal(t, 42.5, entry.CPUPercent)
	assert.Equal(t, int64(1024), entry.RAMUsed)
	assert.Equal(t, 3, entry.ActiveStreams)

	_, ok = stats.Get("10.0.0.2:9000")
	assert.False(t, ok, "private pods are never polled")

	_, ok = stats.Get("10.0.0.3:9000")
	assert.False(t, ok, "pods without an rpc port are skipped")

	assert.Equal(t, int64(1), hits.Load())
	assert.Empty(t, stats.Status().LastError)
}

func TestStatsSyncSilentOnNodeFailure(t *testing.T) {
	cfg := testConfig("127.0.0.1:1")
	cfg.PRPC.TimeoutMs = 200
	client := NewPRPCClient(cfg)
	storage := NewStorageSync(cfg, client, nil, nil)

	storage.entries["127.0.0.1:9000"] = models.StorageEntry{
		Address:  "127.0.0.1:9000",
		IsPublic: true,
		RpcPort:  1,
	}

	stats := NewStatsSync(cfg, client, storage, nil)
	stats.entries["127.0.0.1:9000"] = models.NodeStatsEntry{
		Address:    "127.0.0.1:9000",
		CPUPercent: 10,
	}

	stats.SyncNow()

	// Unreachable pod keeps its previous entry.
	entry, ok := stats.Get("127.0.0.1:9000")
	require.True(t, ok)
	assert.Equal(t, 10.0, entry.CPUPercent)
	assert.Equal(t, int64(1), stats.Status().SyncCount, "a pass with node failures still completes")
	assert.Contains(t, stats.Status().LastError, "no stats collected",
		"a pass that reaches no pod surfaces it in status")
}

func TestStatsSyncRestart(t *testing.T) {
	srv, _ := fakeNode(t, map[string]any{
		"get-stats": models.StatsResponse{CPUPercent: 1},
	})

	cfg := testConfig(hostOf(srv))
	client := NewPRPCClient(cfg)
	storage := NewStorageSync(cfg, client, nil, nil)

	stats := NewStatsSync(cfg, client, storage, nil)
	stats.SetInterval(20 * time.Millisecond)

	stats.Start()
	assert.Eventually(t, func() bool { return stats.Status().SyncCount >= 1 },
		2*time.Second, 10*time.Millisecond)
	stats.Stop()

	count := stats.Status().SyncCount
	stats.Start()
	assert.Eventually(t, func() bool { return stats.Status().SyncCount > count },
		2*time.Second, 10*time.Millisecond)
	stats.Stop()
	stats.Stop()
}
