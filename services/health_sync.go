package services

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"pnodepulse/config"
	"pnodepulse/models"
	"pnodepulse/utils"
)

// HealthSync periodically evaluates network health and risk and records a
// snapshot. A pass that cannot build the roster records nothing; the snapshot
// series only ever contains real observations.
type HealthSync struct {
	cfg        *config.Config
	aggregator *Aggregator
	snapshots  *SnapshotStore
	alerts     *AlertNotifier

	mu       sync.RWMutex
	interval time.Duration
	lastRisk *models.RiskReport

	isSyncing  atomic.Bool
	running    bool
	stopChan   chan struct{}
	wg         sync.WaitGroup
	lastSyncAt atomic.Int64
	syncCount  atomic.Int64
	lastErr    atomic.Value // string
}

func NewHealthSync(cfg *config.Config, aggregator *Aggregator, snapshots *SnapshotStore, alerts *AlertNotifier) *HealthSync {
	s := &HealthSync{
		cfg:        cfg,
		aggregator: aggregator,
		snapshots:  snapshots,
		alerts:     alerts,
		interval:   cfg.HealthSyncInterval(),
		stopChan:   make(chan struct{}),
	}
	s.lastErr.Store("")
	return s
}

func (s *HealthSync) Start() {
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

	log.Printf("[HealthSync] Starting health snapshots every %v", interval)

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

func (s *HealthSync) Stop() {
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
	log.Println("[HealthSync] Stopped")
}

func (s *HealthSync) SetInterval(interval time.Duration) {
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()
	log.Printf("[HealthSync] Interval set to %v", interval)
}

// SyncNow evaluates the network once, skipping if a pass is in flight.
func (s *HealthSync) SyncNow() {
	if !s.isSyncing.CompareAndSwap(false, true) {
		log.Println("[HealthSync] Sync already in progress, skipping")
		return
	}
	defer s.isSyncing.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	roster, err := s.aggregator.BuildRoster(ctx)
	if err != nil {
		s.lastErr.Store(err.Error())
		log.Printf("[HealthSync] Skipping snapshot, roster unavailable: %v", err)
		return
	}

	outdated := 0
	for _, n := range roster.PNodes {
		for _, f := range n.Flags {
			if f == models.FlagOutdated {
				outdated++
				break
			}
		}
	}

	risk := utils.NetworkRisk(roster.Summary.TotalKnown, roster.Summary.Active, outdated, roster.Summary.MajorityVersion)

	snapshot := models.Snapshot{
		Timestamp:          time.Now().UnixMilli(),
		NetworkHealth:      roster.Summary.NetworkHealth,
		ActiveNodes:        roster.Summary.Active,
		TotalNodes:         roster.Summary.TotalKnown,
		RiskScore:          risk.Risk.Score,
		RiskLevel:          risk.Risk.Level,
		OutdatedNodes:      outdated,
		OutdatedPercentage: risk.Metrics.OutdatedPercentage,
	}
	s.snapshots.Append(snapshot)

	s.mu.Lock()
	s.lastRisk = &risk
	s.mu.Unlock()

	if s.alerts != nil {
		s.alerts.Observe(risk)
	}

	s.lastErr.Store("")
	s.lastSyncAt.Store(time.Now().Unix())
	s.syncCount.Add(1)
}

// LastRisk returns the most recent risk report, or false before the first
// successful pass.
func (s *HealthSync) LastRisk() (models.RiskReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRisk == nil {
		return models.RiskReport{}, false
	}
	return *s.lastRisk, true
}

func (s *HealthSync) Status() SyncStatus {
	s.mu.RLock()
	running := s.running
	interval := s.interval
	s.mu.RUnlock()

	return SyncStatus{
		Name:            "health",
		Running:         running,
		Syncing:         s.isSyncing.Load(),
		IntervalSeconds: int(interval.Seconds()),
		LastSyncAt:      s.lastSyncAt.Load(),
		LastError:       s.lastErr.Load().(string),
		SyncCount:       s.syncCount.Load(),
	}
}
