package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"pnodepulse/config"
	"pnodepulse/handlers"
	"pnodepulse/middleware"
	"pnodepulse/services"
	"pnodepulse/utils"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== Configuration ===")
	log.Printf("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Seeds: %v", cfg.PRPC.Seeds)
	log.Printf("Active threshold: %ds", cfg.PRPC.ActiveThreshold)

	if len(cfg.PRPC.Seeds) == 0 {
		log.Fatal("No seed nodes configured (set SEED_NODES)")
	}

	// 2. Core services
	mongoStore, err := services.NewMongoStore(cfg)
	if err != nil {
		log.Printf("MongoDB connection failed, persistence disabled: %v", err)
		mongoStore = nil
	}
	if mongoStore != nil {
		defer mongoStore.Close()
	}

	geo := utils.NewGeoResolver(cfg.GeoIP.DBPath, mongoStore)
	defer geo.Close()

	prpc := services.NewPRPCClient(cfg)

	creditsService := services.NewCreditsService(cfg)
	storageSync := services.NewStorageSync(cfg, prpc, creditsService, mongoStore)
	statsSync := services.NewStatsSync(cfg, prpc, storageSync, mongoStore)
	aggregator := services.NewAggregator(cfg, prpc, geo, storageSync, statsSync, creditsService)
	cache := services.NewCacheService(cfg, aggregator)
	snapshots := services.NewSnapshotStore(mongoStore)
	alerts := services.NewAlertNotifier(cfg)
	defer alerts.Close()
	healthSync := services.NewHealthSync(cfg, aggregator, snapshots, alerts)
	historyService := services.NewHistoryService(snapshots)
	watchlist := services.NewWatchlistService(mongoStore)

	// 3. Background services
	log.Println("=== Starting Services ===")

	creditsService.Start(30 * time.Second)
	storageSync.Start()
	statsSync.Start()
	healthSync.Start()

	log.Println("Waiting for initial storage sync...")
	if storageSync.EnsureSynced(cfg.FirstSyncWait()) {
		log.Println("Initial storage sync complete")
	} else {
		log.Println("Initial storage sync timed out, serving with partial data")
	}

	// 4. Web server
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Recovered from panic: %v", r)
					c.Error(fmt.Errorf("internal server error"))
				}
			}()
			return next(c)
		}
	})

	// 5. Handlers
	h := &handlers.Handler{
		Config:     cfg,
		Client:     prpc,
		Cache:      cache,
		Aggregator: aggregator,
		Storage:    storageSync,
		Stats:      statsSync,
		Health:     healthSync,
		Snapshots:  snapshots,
		History:    historyService,
		Credits:    creditsService,
		Watchlist:  watchlist,
	}

	// 6. Routes
	e.GET("/cache/status", h.GetCacheStatus)
	e.POST("/cache/clear", h.ClearCache)

	api := e.Group("/api")

	api.GET("/health", h.GetHealth)
	api.GET("/stats", h.GetStats)

	api.GET("/pnodes", h.GetPNodes)
	api.GET("/pnodes/version-distribution", h.GetVersionDistribution)
	api.GET("/pnodes/country-distribution", h.GetCountryDistribution)
	api.GET("/pnodes/storage-overview", h.GetStorageOverview)
	api.GET("/pnodes/watch", h.GetWatchlist)
	api.POST("/pnodes/watch", h.AddWatch)
	api.GET("/pnodes/:address", h.GetPNode)

	api.GET("/network/stats", h.GetNetworkStats)
	api.GET("/network/risk", h.GetNetworkRisk)

	api.GET("/history", h.GetHistory)
	api.GET("/snapshots", h.GetSnapshots)
	api.POST("/snapshots", h.TriggerSnapshot)

	api.GET("/sync", h.GetSyncStatus)
	api.POST("/sync", h.ControlSync)

	api.GET("/export/json", h.ExportJSON)
	api.GET("/export/csv", h.ExportCSV)

	credits := api.Group("/credits")
	credits.GET("", h.GetCredits)
	credits.GET("/:pubkey", h.GetPodCredits)

	// 7. Graceful shutdown
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("Server running on http://%s", serverAddr)
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Graceful shutdown initiated...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Stopping services...")
	healthSync.Stop()
	statsSync.Stop()
	storageSync.Stop()
	creditsService.Stop()
	cache.Close()
	log.Println("All services stopped")

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	log.Println("Server exited cleanly")
}
