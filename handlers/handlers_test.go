package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodepulse/config"
	"pnodepulse/models"
	"pnodepulse/services"
)

func fakeSeed(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		if !ok {
			_ = json.NewEncoder(w).Encode(models.RPCResponse{
				JSONRPC: "2.0",
				Error:   &models.RPCError{Code: -32601, Message: "method not found"},
				ID:      req.ID,
			})
			return
		}

		raw, _ := json.Marshal(result)
		_ = json.NewEncoder(w).Encode(models.RPCResponse{JSONRPC: "2.0", Result: raw, ID: req.ID})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T, results map[string]any) *Handler {
	t.Helper()

	seed := fakeSeed(t, results)

	cfg := &config.Config{
		PRPC: config.PRPCConfig{
			Seeds:           []string{strings.TrimPrefix(seed.URL, "http://")},
			DefaultPort:     6000,
			Path:            "/rpc",
			TimeoutMs:       2000,
			ActiveThreshold: 300,
		},
		Sync: config.SyncConfig{
			StorageInterval: 30,
			StatsInterval:   60,
			HealthInterval:  120,
			EnrichBudgetMs:  8000,
			EnrichBatchSize: 20,
		},
		Cache: config.CacheConfig{TTL: 30},
	}

	client := services.NewPRPCClient(cfg)
	credits := services.NewCreditsService(cfg)
	storage := services.NewStorageSync(cfg, client, credits, nil)
	stats := services.NewStatsSync(cfg, client, storage, nil)
	aggregator := services.NewAggregator(cfg, client, nil, storage, stats, credits)
	cache := services.NewCacheService(cfg, aggregator)
	snapshots := services.NewSnapshotStore(nil)
	health := services.NewHealthSync(cfg, aggregator, snapshots, nil)
	history := services.NewHistoryService(snapshots)
	watchlist := services.NewWatchlistService(nil)

	return &Handler{
		Config:     cfg,
		Client:     client,
		Cache:      cache,
		Aggregator: aggregator,
		Storage:    storage,
		Stats:      stats,
		Health:     health,
		Snapshots:  snapshots,
		History:    history,
		Credits:    credits,
		Watchlist:  watchlist,
	}
}

func defaultSeedResults() map[string]any {
	now := time.Now().Unix()
	return map[string]any{
		"get-version": models.VersionResponse{Version: "0.8.0"},
		"get-pods": models.PodsResponse{
			Pods: []models.Pod{
				{Address: "1.1.1.1:9000", Version: "0.8.0", LastSeenTimestamp: now - 5},
				{Address: "2.2.2.2:9000", Version: "0.8.0", LastSeenTimestamp: now - 5},
				{Address: "3.3.3.3:9000", Version: "0.7.0", LastSeenTimestamp: now - 10000},
			},
			TotalCount: 3,
		},
		"get-pods-with-stats": models.PodsResponse{Pods: []models.Pod{}, TotalCount: 0},
		"get-stats":           models.StatsResponse{FileSize: 5000, RAMUsed: 100, RAMTotal: 400},
	}
}

func doRequest(h echo.HandlerFunc, method, target string, pathParams map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range pathParams {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	_ = h(c)
	return rec
}

func TestGetPNodes(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.GetPNodes, http.MethodGet, "/api/pnodes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var roster models.Roster
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roster))

	assert.Equal(t, 3, roster.Summary.TotalKnown)
	assert.Equal(t, 2, roster.Summary.Active)
	assert.Equal(t, "0.8.0", roster.Summary.MajorityVersion)
	assert.Len(t, roster.PNodes, 3)
}

func TestGetPNodesStatusFilter(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.GetPNodes, http.MethodGet, "/api/pnodes?status=inactive", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var roster models.Roster
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roster))

	require.Len(t, roster.PNodes, 1)
	assert.Equal(t, "3.3.3.3:9000", roster.PNodes[0].Address)
}

func TestGetPNodeNotFound(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.GetPNode, http.MethodGet, "/api/pnodes/9.9.9.9:9000",
		map[string]string{"address": "9.9.9.9:9000"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHealth(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.GetHealth, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "0.8.0", resp.SeedVersion)
	assert.Equal(t, services.CacheModeMemory, resp.CacheMode)
}

func TestGetHealthSeedDown(t *testing.T) {
	h := newTestHandler(t, map[string]any{})

	rec := doRequest(h.GetHealth, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetNetworkRisk(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.GetNetworkRisk, http.MethodGet, "/api/network/risk", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.RiskReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	// One of three nodes inactive and outdated: 100 - 25 - 25 = 50.
	assert.Equal(t, 50, report.Risk.Score)
	assert.Equal(t, models.RiskHigh, report.Risk.Level)
	assert.Equal(t, "network", report.Scope)
}

func TestGetHistoryInvalidRange(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.GetHistory, http.MethodGet, "/api/history?range=7d", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistoryDefaultsToOneHour(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.GetHistory, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1h", resp.Range)
	assert.Equal(t, 30, resp.TotalPoints)
}

func TestTriggerSnapshot(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.TriggerSnapshot, http.MethodPost, "/api/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.Snapshots.Count())

	rec = doRequest(h.GetSnapshots, http.MethodGet, "/api/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestControlSyncValidation(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/sync",
		strings.NewReader(`{"action":"syncNow","service":"bogus"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h.ControlSync(e.NewContext(req, rec))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestControlSyncSyncNow(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/sync",
		strings.NewReader(`{"action":"syncNow","service":"storage"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h.ControlSync(e.NewContext(req, rec))

	require.Equal(t, http.StatusOK, rec.Code)

	var status services.SyncStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "storage", status.Name)
	assert.Equal(t, int64(1), status.SyncCount)
}

func postWatch(h *Handler, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/pnodes/watch", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h.AddWatch(e.NewContext(req, rec))
	return rec
}

func TestAddWatchRequiresIP(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := postWatch(h, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "IP is required")
}

func TestWatchlistAddAndList(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := postWatch(h, `{"ip":"1.1.1.1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var added struct {
		Success bool              `json:"success"`
		Watch   models.WatchEntry `json:"watch"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.True(t, added.Success)
	assert.Equal(t, "1.1.1.1", added.Watch.IP)

	// Re-adding the same IP keeps the original entry.
	rec = postWatch(h, `{"ip":"1.1.1.1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postWatch(h, `{"ip":"2.2.2.2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h.GetWatchlist, http.MethodGet, "/api/pnodes/watch", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Watchlist []models.WatchEntry `json:"watchlist"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Watchlist, 2)
	assert.Equal(t, "1.1.1.1", listed.Watchlist[0].IP)
	assert.Equal(t, "2.2.2.2", listed.Watchlist[1].IP)
}

func TestExportCSV(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.ExportCSV, http.MethodGet, "/api/export/csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	lines := strings.Split(strings.TrimSpace(body), "\n")
	assert.Len(t, lines, 4, "header plus one row per node")
	assert.True(t, strings.HasPrefix(lines[0], "address,version,last_seen,status,health_score"))
	assert.Contains(t, body, "1.1.1.1:9000")
}

func TestCacheStatusAndClear(t *testing.T) {
	h := newTestHandler(t, defaultSeedResults())

	rec := doRequest(h.GetCacheStatus, http.MethodGet, "/cache/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), services.CacheModeMemory)

	rec = doRequest(h.ClearCache, http.MethodPost, "/cache/clear", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
