package services

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"pnodepulse/models"
)

// WatchlistService keeps the set of operator-watched IPs. Entries live in
// memory keyed by IP; with MongoDB attached they are mirrored to the
// watchlist collection and reloaded on boot.
type WatchlistService struct {
	mu      sync.RWMutex
	entries map[string]models.WatchEntry
	mongo   *MongoStore
}

func NewWatchlistService(mongo *MongoStore) *WatchlistService {
	w := &WatchlistService{
		entries: make(map[string]models.WatchEntry),
		mongo:   mongo,
	}
	w.warmFromMongo()
	return w
}

func (w *WatchlistService) warmFromMongo() {
	if !w.mongo.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	entries, err := w.mongo.LoadWatchlist(ctx)
	if err != nil {
		log.Printf("[Watchlist] Failed to reload watchlist: %v", err)
		return
	}
	w.mu.Lock()
	for _, e := range entries {
		w.entries[e.IP] = e
	}
	w.mu.Unlock()
	log.Printf("[Watchlist] Reloaded %d watched IPs", len(entries))
}

// Add puts an IP on the watchlist. Adding an IP already watched returns the
// existing entry.
func (w *WatchlistService) Add(ctx context.Context, ip string) models.WatchEntry {
	w.mu.Lock()
	entry, ok := w.entries[ip]
	if !ok {
		entry = models.WatchEntry{IP: ip, CreatedAt: time.Now().Unix()}
		w.entries[ip] = entry
	}
	w.mu.Unlock()

	if !ok && w.mongo.Enabled() {
		if err := w.mongo.SaveWatch(ctx, &entry); err != nil {
			log.Printf("[Watchlist] Failed to persist watch for %s: %v", ip, err)
		}
	}
	return entry
}

// List returns all watched IPs, oldest first.
func (w *WatchlistService) List() []models.WatchEntry {
	w.mu.RLock()
	out := make([]models.WatchEntry, 0, len(w.entries))
	for _, e := range w.entries {
		out = append(out, e)
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].IP < out[j].IP
	})
	return out
}
