package services

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pnodepulse/config"
	"pnodepulse/models"
)

// StatsSync collects per-node system stats from public pods. Each pass walks
// the storage cache, calls get-stats directly against every public pod's
// advertised rpc port and upserts the result. A pod that fails to answer is
// skipped without touching its previous entry; private pods are never polled.
type StatsSync struct {
	cfg     *config.Config
	client  *PRPCClient
	storage *StorageSync
	mongo   *MongoStore

	mu       sync.RWMutex
	entries  map[string]models.NodeStatsEntry
	interval time.Duration

	isSyncing  atomic.Bool
	running    bool
	stopChan   chan struct{}
	wg         sync.WaitGroup
	lastSyncAt atomic.Int64
	syncCount  atomic.Int64
	lastErr    atomic.Value // string
}

const statsSyncConcurrency = 10

func NewStatsSync(cfg *config.Config, client *PRPCClient, storage *StorageSync, mongo *MongoStore) *StatsSync {
	s := &StatsSync{
		cfg:      cfg,
		client:   client,
		storage:  storage,
		mongo:    mongo,
		entries:  make(map[string]models.NodeStatsEntry),
		interval: cfg.StatsSyncInterval(),
		stopChan: make(chan struct{}),
	}
	s.lastErr.Store("")
	s.warmFromMongo()
	return s
}

func (s *StatsSync) warmFromMongo() {
	if !s.mongo.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	entries, err := s.mongo.LoadNodeStats(ctx)
	if err != nil {
		log.Printf("[StatsSync] Failed to warm cache from MongoDB: %v", err)
		return
	}
	s.mu.Lock()
	for _, e := range entries {
		s.entries[e.Address] = e
	}
	s.mu.Unlock()
	log.Printf("[StatsSync] Warmed %d stats entries from MongoDB", len(entries))
}

func (s *StatsSync) Start() {
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

	log.Printf("[StatsSync] Starting node stats sync every %v", interval)

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

func (s *StatsSync) Stop() {
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
	log.Println("[StatsSync] Stopped")
}

func (s *StatsSync) SetInterval(interval time.Duration) {
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()
	log.Printf("[StatsSync] Interval set to %v", interval)
}

// SyncNow runs one collection pass, skipping if one is already in flight.
func (s *StatsSync) SyncNow() {
	if !s.isSyncing.CompareAndSwap(false, true) {
		log.Println("[StatsSync] Sync already in progress, skipping")
		return
	}
	defer s.isSyncing.Store(false)

	attempted, collected := s.syncOnce()
	if attempted > 0 && collected == 0 {
		s.lastErr.Store(fmt.Sprintf("no stats collected from %d public pods", attempted))
	} else {
		s.lastErr.Store("")
	}

	s.lastSyncAt.Store(time.Now().Unix())
	s.syncCount.Add(1)
}

func (s *StatsSync) syncOnce() (attempted, collected int) {
	storage := s.storage.All()

	type target struct {
		address string
		rpcAddr string
	}

	targets := make([]target, 0, len(storage))
	for addr, entry := range storage {
		if !entry.IsPublic || entry.RpcPort == 0 {
			continue
		}
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		targets = append(targets, target{
			address: addr,
			rpcAddr: net.JoinHostPort(host, strconv.Itoa(entry.RpcPort)),
		})
	}

	if len(targets) == 0 {
		return 0, 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	sem := make(chan struct{}, statsSyncConcurrency)
	var collectedCount atomic.Int64

	for _, t := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(t target) {
			defer wg.Done()
			defer func() { <-sem }()

			stats, err := s.client.GetNodeStats(ctx, t.rpcAddr)
			if err != nil {
				// Private firewalls and churned pods make this routine.
				return
			}

			entry := models.NodeStatsEntry{
				Address:         t.address,
				CPUPercent:      stats.CPUPercent,
				RAMUsed:         stats.RAMUsed,
				RAMTotal:        stats.RAMTotal,
				ActiveStreams:   stats.ActiveStreams,
				PacketsReceived: stats.PacketsReceived,
				PacketsSent:     stats.PacketsSent,
				LastFetched:     time.Now().Unix(),
			}

			s.mu.Lock()
			s.entries[t.address] = entry
			s.mu.Unlock()

			if s.mongo.Enabled() {
				if err := s.mongo.UpsertNodeStats(ctx, &entry); err != nil {
					log.Printf("[StatsSync] Failed to persist stats for %s: %v", t.address, err)
				}
			}
			collectedCount.Add(1)
		}(t)
	}
	wg.Wait()

	log.Printf("[StatsSync] Collected stats from %d/%d public pods", collectedCount.Load(), len(targets))
	return len(targets), int(collectedCount.Load())
}

// Get returns the cached stats entry for an address.
func (s *StatsSync) Get(address string) (models.NodeStatsEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[address]
	return entry, ok
}

// All returns a copy of the stats cache keyed by address.
func (s *StatsSync) All() map[string]models.NodeStatsEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.NodeStatsEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

func (s *StatsSync) Status() SyncStatus {
	s.mu.RLock()
	running := s.running
	interval := s.interval
	s.mu.RUnlock()

	return SyncStatus{
		Name:            "stats",
		Running:         running,
		Syncing:         s.isSyncing.Load(),
		IntervalSeconds: int(interval.Seconds()),
		LastSyncAt:      s.lastSyncAt.Load(),
		LastError:       s.lastErr.Load().(string),
		SyncCount:       s.syncCount.Load(),
	}
}
