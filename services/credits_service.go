package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"pnodepulse/config"
	"pnodepulse/models"
)

// CreditsService polls the external pod-credits provider and keeps a ranked
// standings table in memory. Credits are keyed by pod pubkey; rank follows
// descending credits and CreditsChange tracks the delta since the previous
// successful fetch.
type CreditsService struct {
	cfg        *config.Config
	httpClient *http.Client

	mu        sync.RWMutex
	standings map[string]*models.PodCredits

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func NewCreditsService(cfg *config.Config) *CreditsService {
	return &CreditsService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		standings: make(map[string]*models.PodCredits),
		stopChan:  make(chan struct{}),
	}
}

// Start launches the polling loop. The first fetch runs immediately.
func (s *CreditsService) Start(interval time.Duration) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	log.Printf("[Credits] Starting credits polling every %v", interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := s.fetchOnce(); err != nil {
			log.Printf("[Credits] Initial fetch failed: %v", err)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.fetchOnce(); err != nil {
					log.Printf("[Credits] Fetch failed: %v", err)
				}
			case <-stop:
				return
			}
		}
	}()
}

func (s *CreditsService) Stop() {
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
	log.Println("[Credits] Stopped")
}

func (s *CreditsService) fetchOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Credits.Endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("credits provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("credits provider returned status %d", resp.StatusCode)
	}

	var payload models.PodCreditsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode credits payload: %w", err)
	}

	s.applyUpdate(payload.PodsCredits)
	return nil
}

// applyUpdate replaces standings with the fresh provider payload and
// recomputes ranks. Pods absent from the payload keep their previous entry so
// a provider hiccup never zeroes a pod's credits.
func (s *CreditsService) applyUpdate(credits []models.PodCredit) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pc := range credits {
		if pc.PodID == "" {
			continue
		}
		existing, ok := s.standings[pc.PodID]
		if ok {
			existing.CreditsChange = pc.Credits - existing.Credits
			existing.Credits = pc.Credits
			existing.LastUpdated = now
		} else {
			s.standings[pc.PodID] = &models.PodCredits{
				Pubkey:      pc.PodID,
				Credits:     pc.Credits,
				LastUpdated: now,
			}
		}
	}

	s.rankLocked()
}

func (s *CreditsService) rankLocked() {
	ordered := make([]*models.PodCredits, 0, len(s.standings))
	for _, pc := range s.standings {
		ordered = append(ordered, pc)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Credits != ordered[j].Credits {
			return ordered[i].Credits > ordered[j].Credits
		}
		return ordered[i].Pubkey < ordered[j].Pubkey
	})
	for i, pc := range ordered {
		pc.Rank = i + 1
	}
}

// GetCredits returns the tracked credits for a pubkey.
func (s *CreditsService) GetCredits(pubkey string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pc, ok := s.standings[pubkey]
	if !ok {
		return 0, false
	}
	return pc.Credits, true
}

// GetStanding returns the full standing for one pubkey.
func (s *CreditsService) GetStanding(pubkey string) (models.PodCredits, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pc, ok := s.standings[pubkey]
	if !ok {
		return models.PodCredits{}, false
	}
	return *pc, true
}

// GetStandings returns all standings sorted by rank.
func (s *CreditsService) GetStandings() []models.PodCredits {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PodCredits, 0, len(s.standings))
	for _, pc := range s.standings {
		out = append(out, *pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
