package handlers

import (
	"pnodepulse/config"
	"pnodepulse/services"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	Config     *config.Config
	Client     *services.PRPCClient
	Cache      *services.CacheService
	Aggregator *services.Aggregator
	Storage    *services.StorageSync
	Stats      *services.StatsSync
	Health     *services.HealthSync
	Snapshots  *services.SnapshotStore
	History    *services.HistoryService
	Credits    *services.CreditsService
	Watchlist  *services.WatchlistService
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
