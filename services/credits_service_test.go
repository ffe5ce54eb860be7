package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodepulse/models"
)

func creditsProvider(t *testing.T, payload models.PodCreditsResponse) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestCreditsFetchAndRank(t *testing.T) {
	srv, _ := creditsProvider(t, models.PodCreditsResponse{
		Status: "ok",
		PodsCredits: []models.PodCredit{
			{PodID: "pk-b", Credits: 500},
			{PodID: "pk-a", Credits: 900},
			{PodID: "pk-c", Credits: 500},
		},
	})

	cfg := testConfig("127.0.0.1:1")
	cfg.Credits.Endpoint = srv.URL

	svc := NewCreditsService(cfg)
	require.NoError(t, svc.fetchOnce())

	standings := svc.GetStandings()
	require.Len(t, standings, 3)
	assert.Equal(t, "pk-a", standings[0].Pubkey)
	assert.Equal(t, 1, standings[0].Rank)

	// Ties rank by pubkey so standings stay stable between fetches.
	assert.Equal(t, "pk-b", standings[1].Pubkey)
	assert.Equal(t, "pk-c", standings[2].Pubkey)

	credits, ok := svc.GetCredits("pk-a")
	require.True(t, ok)
	assert.Equal(t, int64(900), credits)
}

func TestCreditsRestart(t *testing.T) {
	srv, hits := creditsProvider(t, models.PodCreditsResponse{
		Status:      "ok",
		PodsCredits: []models.PodCredit{{PodID: "pk-a", Credits: 100}},
	})

	cfg := testConfig("127.0.0.1:1")
	cfg.Credits.Endpoint = srv.URL

	svc := NewCreditsService(cfg)

	svc.Start(20 * time.Millisecond)
	assert.Eventually(t, func() bool { return hits.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)
	svc.Stop()

	count := hits.Load()
	svc.Start(20 * time.Millisecond)
	assert.Eventually(t, func() bool { return hits.Load() > count },
		2*time.Second, 10*time.Millisecond)
	svc.Stop()
	svc.Stop()
}
