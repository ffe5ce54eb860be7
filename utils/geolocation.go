package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"

	"pnodepulse/models"
)

// GeoStore persists resolved locations across restarts. First successful
// lookup wins; entries never expire.
type GeoStore interface {
	LoadGeo(ctx context.Context, ip string) (*models.GeoEntry, error)
	SaveGeo(ctx context.Context, entry *models.GeoEntry) error
}

type GeoResolver struct {
	db         *geoip2.Reader
	store      GeoStore
	httpClient *http.Client
	cache      sync.Map // ip -> models.GeoEntry
}

// NewGeoResolver never fails hard: without a local GeoIP database it falls
// back to API-only mode.
func NewGeoResolver(dbPath string, store GeoStore) *GeoResolver {
	var db *geoip2.Reader

	if dbPath != "" {
		var err error
		db, err = geoip2.Open(dbPath)
		if err != nil {
			log.Printf("Warning: Could not open GeoIP database at %s: %v. Using API fallback only.", dbPath, err)
			db = nil
		}
	}

	return &GeoResolver{
		db:    db,
		store: store,
		httpClient: &http.Client{
			Timeout: 3 * time.Second,
		},
	}
}

func (g *GeoResolver) Close() {
	if g != nil && g.db != nil {
		g.db.Close()
	}
}

// Lookup resolves an IP to a location, consulting in order: the in-memory
// cache, the persistent store, the local GeoIP database, and the HTTP
// provider. The result is cached and persisted on first success. Returns
// false when nothing could be resolved; callers leave the node's geo fields
// absent in that case.
func (g *GeoResolver) Lookup(ctx context.Context, ip string) (models.GeoEntry, bool) {
	if g == nil {
		return models.GeoEntry{}, false
	}

	if val, ok := g.cache.Load(ip); ok {
		return val.(models.GeoEntry), true
	}

	if g.store != nil {
		if cached, err := g.store.LoadGeo(ctx, ip); err == nil && cached != nil {
			g.cache.Store(ip, *cached)
			return *cached, true
		}
	}

	var entry models.GeoEntry
	var found bool

	if g.db != nil {
		if parsed := net.ParseIP(ip); parsed != nil {
			if record, err := g.db.City(parsed); err == nil && record.Country.Names["en"] != "" {
				entry = models.GeoEntry{
					IP:        ip,
					Country:   record.Country.Names["en"],
					City:      record.City.Names["en"],
					Latitude:  record.Location.Latitude,
					Longitude: record.Location.Longitude,
				}
				found = true
			}
		}
	}

	if !found {
		if apiEntry, err := g.fetchFromAPI(ctx, ip); err == nil {
			entry = *apiEntry
			found = true
		}
	}

	if !found {
		return models.GeoEntry{}, false
	}

	g.cache.Store(ip, entry)
	if g.store != nil {
		_ = g.store.SaveGeo(ctx, &entry)
	}

	return entry, true
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Country string  `json:"country"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (g *GeoResolver) fetchFromAPI(ctx context.Context, ip string) (*models.GeoEntry, error) {
	url := fmt.Sprintf("http://ip-api.com/json/%s?fields=status,country,city,lat,lon", ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo api error: %d", resp.StatusCode)
	}

	var apiResp ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	if apiResp.Status != "success" || apiResp.Country == "" {
		return nil, fmt.Errorf("geo api returned no result")
	}

	return &models.GeoEntry{
		IP:        ip,
		Country:   apiResp.Country,
		City:      apiResp.City,
		Latitude:  apiResp.Lat,
		Longitude: apiResp.Lon,
	}, nil
}
