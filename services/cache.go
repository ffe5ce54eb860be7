package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"pnodepulse/config"
	"pnodepulse/models"
)

// Cache modes. Degraded means Redis was configured but is unreachable; the
// in-memory layer carries reads until it comes back.
const (
	CacheModeRedis    = "redis"
	CacheModeMemory   = "in-memory"
	CacheModeDegraded = "degraded"
)

const rosterCacheKey = "pnodepulse:roster"

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// CacheService is the read-through cache in front of the aggregator. Fresh
// hits come from Redis when available, otherwise from process memory. When a
// rebuild fails the last good roster is served stale so the API degrades to
// old data instead of errors.
type CacheService struct {
	cfg        *config.Config
	aggregator *Aggregator
	redis      *redis.Client

	mu       sync.Mutex
	memory   map[string]memEntry
	lastGood map[string][]byte
	degraded bool
}

func NewCacheService(cfg *config.Config, aggregator *Aggregator) *CacheService {
	c := &CacheService{
		cfg:        cfg,
		aggregator: aggregator,
		memory:     make(map[string]memEntry),
		lastGood:   make(map[string][]byte),
	}

	if cfg.Redis.Enabled {
		c.redis = connectRedis(cfg)
	} else {
		log.Println("[Cache] Redis disabled, using in-memory cache")
	}

	return c
}

func connectRedis(cfg *config.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[Cache] Redis ping failed, will retry on use: %v", err)
	} else {
		log.Printf("[Cache] Redis connected at %s", cfg.Redis.Address)
	}

	return client
}

// Mode reports which layer is currently serving cache reads.
func (c *CacheService) Mode() string {
	if c.redis == nil {
		return CacheModeMemory
	}
	c.mu.Lock()
	degraded := c.degraded
	c.mu.Unlock()
	if degraded {
		return CacheModeDegraded
	}
	return CacheModeRedis
}

// GetRoster returns the cached roster, rebuilding it through the aggregator
// on a miss. The stale flag is true when a rebuild failed and the last good
// roster was served instead.
func (c *CacheService) GetRoster(ctx context.Context) (*models.Roster, bool, error) {
	if data, ok := c.getFresh(ctx, rosterCacheKey); ok {
		var roster models.Roster
		if err := json.Unmarshal(data, &roster); err == nil {
			return &roster, false, nil
		}
	}

	roster, err := c.aggregator.BuildRoster(ctx)
	if err != nil {
		if data, ok := c.getStale(rosterCacheKey); ok {
			var staleRoster models.Roster
			if uerr := json.Unmarshal(data, &staleRoster); uerr == nil {
				log.Printf("[Cache] Serving stale roster, rebuild failed: %v", err)
				return &staleRoster, true, nil
			}
		}
		return nil, false, err
	}

	if data, merr := json.Marshal(roster); merr == nil {
		c.set(ctx, rosterCacheKey, data)
	}

	return roster, false, nil
}

func (c *CacheService) getFresh(ctx context.Context, key string) ([]byte, bool) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			c.setDegraded(false)
			return data, true
		}
		if err != redis.Nil {
			c.setDegraded(true)
		} else {
			c.setDegraded(false)
			return nil, false
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.memory[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *CacheService) getStale(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.lastGood[key]
	return data, ok
}

func (c *CacheService) set(ctx context.Context, key string, data []byte) {
	ttl := c.cfg.CacheTTLDuration()

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
			c.setDegraded(true)
			log.Printf("[Cache] Redis set failed: %v", err)
		} else {
			c.setDegraded(false)
		}
	}

	c.mu.Lock()
	c.memory[key] = memEntry{data: data, expiresAt: time.Now().Add(ttl)}
	c.lastGood[key] = data
	c.mu.Unlock()
}

func (c *CacheService) setDegraded(degraded bool) {
	c.mu.Lock()
	if c.degraded != degraded && c.redis != nil {
		if degraded {
			log.Println("[Cache] Redis unreachable, degrading to in-memory cache")
		} else if c.degraded {
			log.Println("[Cache] Redis recovered")
		}
	}
	c.degraded = degraded
	c.mu.Unlock()
}

// Clear drops all cached entries. The last-good copies survive so stale
// serving still works after a clear.
func (c *CacheService) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.memory = make(map[string]memEntry)
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.Del(ctx, rosterCacheKey).Err(); err != nil && err != redis.Nil {
			return err
		}
	}
	return nil
}

func (c *CacheService) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
}
