package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"pnodepulse/config"
	"pnodepulse/models"
)

// SyncStatus is the introspection payload shared by all background sync
// services.
type SyncStatus struct {
	Name            string `json:"name"`
	Running         bool   `json:"running"`
	Syncing         bool   `json:"syncing"`
	IntervalSeconds int    `json:"interval_seconds"`
	LastSyncAt      int64  `json:"last_sync_at"`
	LastError       string `json:"last_error,omitempty"`
	SyncCount       int64  `json:"sync_count"`
}

// StorageSync refreshes the pod storage cache from the seeds on a fixed
// schedule. Each pass fetches get-pods-with-stats, merges in tracked credits
// and upserts rows keyed by address. Rows are never deleted: a node missing
// from one pass keeps its last known storage figures.
type StorageSync struct {
	cfg     *config.Config
	client  *PRPCClient
	credits *CreditsService
	mongo   *MongoStore

	mu       sync.RWMutex
	entries  map[string]models.StorageEntry
	interval time.Duration

	isSyncing  atomic.Bool
	running    bool
	stopChan   chan struct{}
	wg         sync.WaitGroup
	lastSyncAt atomic.Int64
	syncCount  atomic.Int64
	lastErr    atomic.Value // string

	firstSyncOnce sync.Once
	firstSyncDone chan struct{}
}

func NewStorageSync(cfg *config.Config, client *PRPCClient, credits *CreditsService, mongo *MongoStore) *StorageSync {
	s := &StorageSync{
		cfg:           cfg,
		client:        client,
		credits:       credits,
		mongo:         mongo,
		entries:       make(map[string]models.StorageEntry),
		interval:      cfg.StorageSyncInterval(),
		stopChan:      make(chan struct{}),
		firstSyncDone: make(chan struct{}),
	}
	s.lastErr.Store("")
	s.warmFromMongo()
	return s
}

func (s *StorageSync) warmFromMongo() {
	if !s.mongo.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	entries, err := s.mongo.LoadStorageEntries(ctx)
	if err != nil {
		log.Printf("[StorageSync] Failed to warm cache from MongoDB: %v", err)
		return
	}
	s.mu.Lock()
	for _, e := range entries {
		s.entries[e.Address] = e
	}
	s.mu.Unlock()
	log.Printf("[StorageSync] Warmed %d storage entries from MongoDB", len(entries))
}

func (s *StorageSync) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	interval := s.interval
	s.mu.Unlock()

	log.Printf("[StorageSync] Starting storage sync every %v", interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.SyncNow()

		for {
			s.mu.RLock()
			wait := s.interval
			s.mu.RUnlock()

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				s.SyncNow()
			case <-stop:
				timer.Stop()
				return
			}
		}
	}()
}

func (s *StorageSync) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop := s.stopChan
	s.mu.Unlock()

	close(stop)
	s.wg.Wait()
	log.Println("[StorageSync] Stopped")
}

// SetInterval changes the sync cadence. Takes effect after the current wait.
func (s *StorageSync) SetInterval(interval time.Duration) {
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()
	log.Printf("[StorageSync] Interval set to %v", interval)
}

// SyncNow runs one sync pass. If a pass is already in flight the call is
// skipped, not queued.
func (s *StorageSync) SyncNow() {
	if !s.isSyncing.CompareAndSwap(false, true) {
		log.Println("[StorageSync] Sync already in progress, skipping")
		return
	}
	defer s.isSyncing.Store(false)

	if err := s.syncOnce(); err != nil {
		s.lastErr.Store(err.Error())
		log.Printf("[StorageSync] Sync failed: %v", err)
		return
	}

	s.lastErr.Store("")
	s.lastSyncAt.Store(time.Now().Unix())
	s.syncCount.Add(1)
	s.firstSyncOnce.Do(func() { close(s.firstSyncDone) })
}

func (s *StorageSync) syncOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	podsResp, err := s.client.GetPodsWithStats(ctx)
	if err != nil {
		return fmt.Errorf("fetch pods with stats: %w", err)
	}

	updated := 0
	for _, pod := range podsResp.Pods {
		if pod.Address == "" {
			continue
		}

		entry := models.StorageEntry{
			Address:             pod.Address,
			IsPublic:            pod.IsPublic,
			LastSeenTimestamp:   pod.LastSeenTimestamp,
			Pubkey:              pod.Pubkey,
			RpcPort:             pod.RpcPort,
			StorageCommitted:    pod.StorageCommitted,
			StorageUsed:         pod.StorageUsed,
			StorageUsagePercent: pod.StorageUsagePercent,
			Uptime:              pod.Uptime,
			Version:             pod.Version,
		}

		if s.credits != nil && pod.Pubkey != "" {
			if credits, ok := s.credits.GetCredits(pod.Pubkey); ok {
				entry.Credits = credits
			}
		}

		s.mu.Lock()
		s.entries[pod.Address] = entry
		s.mu.Unlock()

		if s.mongo.Enabled() {
			if err := s.mongo.UpsertStorageEntry(ctx, &entry); err != nil {
				log.Printf("[StorageSync] Failed to persist entry for %s: %v", pod.Address, err)
			}
		}
		updated++
	}

	log.Printf("[StorageSync] Synced storage for %d pods", updated)
	return nil
}

// EnsureSynced blocks until the first successful sync or the timeout elapses.
func (s *StorageSync) EnsureSynced(timeout time.Duration) bool {
	select {
	case <-s.firstSyncDone:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Get returns the cached storage entry for an address.
func (s *StorageSync) Get(address string) (models.StorageEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[address]
	return entry, ok
}

// All returns a copy of the storage cache keyed by address.
func (s *StorageSync) All() map[string]models.StorageEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.StorageEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

func (s *StorageSync) Status() SyncStatus {
	s.mu.RLock()
	running := s.running
	interval := s.interval
	s.mu.RUnlock()

	return SyncStatus{
		Name:            "storage",
		Running:         running,
		Syncing:         s.isSyncing.Load(),
		IntervalSeconds: int(interval.Seconds()),
		LastSyncAt:      s.lastSyncAt.Load(),
		LastError:       s.lastErr.Load().(string),
		SyncCount:       s.syncCount.Load(),
	}
}
