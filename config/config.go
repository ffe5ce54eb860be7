package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig  `json:"server"`
	PRPC    PRPCConfig    `json:"prpc"`
	Sync    SyncConfig    `json:"sync"`
	Cache   CacheConfig   `json:"cache"`
	Redis   RedisConfig   `json:"redis"`
	GeoIP   GeoIPConfig   `json:"geoip"`
	MongoDB MongoDBConfig `json:"mongodb"`
	Credits CreditsConfig `json:"credits"`
	Discord DiscordConfig `json:"discord"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type PRPCConfig struct {
	Seeds           []string `json:"seeds"`
	DefaultPort     int      `json:"default_port"`
	Path            string   `json:"path"`
	TimeoutMs       int      `json:"timeout_ms"`
	ActiveThreshold int      `json:"active_threshold_seconds"`
}

type SyncConfig struct {
	StorageInterval   int `json:"storage_interval_seconds"`
	StatsInterval     int `json:"stats_interval_seconds"`
	HealthInterval    int `json:"health_interval_seconds"`
	EnrichBudgetMs    int `json:"enrich_budget_ms"`
	EnrichBatchSize   int `json:"enrich_batch_size"`
	FirstSyncWaitSecs int `json:"first_sync_wait_seconds"`
}

type CacheConfig struct {
	TTL int `json:"ttl_seconds"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Enabled  bool   `json:"enabled"`
	UseTLS   bool   `json:"use_tls"`
}

type GeoIPConfig struct {
	DBPath string `json:"db_path"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
	Enabled  bool   `json:"enabled"`
}

type CreditsConfig struct {
	Endpoint string `json:"endpoint"`
}

type DiscordConfig struct {
	BotToken  string `json:"bot_token"`
	ChannelID string `json:"channel_id"`
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		PRPC: PRPCConfig{
			Seeds:           []string{},
			DefaultPort:     6000,
			Path:            "/rpc",
			TimeoutMs:       4000,
			ActiveThreshold: 300,
		},
		Sync: SyncConfig{
			StorageInterval:   30,  // roster + storage refresh
			StatsInterval:     60,  // per-node stats collection
			HealthInterval:    120, // health snapshots
			EnrichBudgetMs:    8000,
			EnrichBatchSize:   20,
			FirstSyncWaitSecs: 30,
		},
		Cache: CacheConfig{
			TTL: 30,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			DB:      0,
			Enabled: false,
			UseTLS:  false,
		},
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017",
			Database: "pnode_pulse",
			Enabled:  false,
		},
		Credits: CreditsConfig{
			Endpoint: "https://podcredits.xandeum.network/api/pods-credits",
		},
	}

	// Load from config file if exists
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err == nil {
			defer file.Close()
			if err := json.NewDecoder(file).Decode(cfg); err != nil {
				fmt.Printf("Warning: Failed to decode config file: %v\n", err)
			}
		}
	}

	// Environment variables override the config file
	loadEnv(cfg)

	// Command-line flags override everything
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var serverPort int
	var serverHost string

	fs.IntVar(&serverPort, "port", 0, "Server port")
	fs.StringVar(&serverHost, "host", "", "Server host")

	_ = fs.Parse(os.Args[1:])

	if isFlagPassed(fs, "port") {
		cfg.Server.Port = serverPort
	}
	if isFlagPassed(fs, "host") {
		cfg.Server.Host = serverHost
	}

	return cfg, nil
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadEnv(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = strings.Split(val, ",")
	}

	if val := os.Getenv("SEED_NODES"); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.PRPC.Seeds = parts
	}
	if val := os.Getenv("PRPC_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.DefaultPort = p
		}
	}
	if val := os.Getenv("PRPC_PATH"); val != "" {
		cfg.PRPC.Path = val
	}
	if val := os.Getenv("PRPC_TIMEOUT_MS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.TimeoutMs = p
		}
	}
	if val := os.Getenv("ACTIVE_THRESHOLD_SECONDS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.ActiveThreshold = p
		}
	}

	if val := os.Getenv("STORAGE_SYNC_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Sync.StorageInterval = p
		}
	}
	if val := os.Getenv("STATS_SYNC_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Sync.StatsInterval = p
		}
	}
	if val := os.Getenv("HEALTH_SYNC_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Sync.HealthInterval = p
		}
	}
	if val := os.Getenv("ENRICH_BUDGET_MS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Sync.EnrichBudgetMs = p
		}
	}
	if val := os.Getenv("ENRICH_BATCH_SIZE"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Sync.EnrichBatchSize = p
		}
	}

	if val := os.Getenv("CACHE_TTL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Cache.TTL = p
		}
	}

	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		cfg.Redis.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("REDIS_TLS"); val != "" {
		cfg.Redis.UseTLS = val == "true" || val == "1"
	}

	if val := os.Getenv("GEOIP_DB_PATH"); val != "" {
		cfg.GeoIP.DBPath = val
	}

	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.MongoDB.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.MongoDB.Database = val
	}
	if val := os.Getenv("MONGODB_ENABLED"); val != "" {
		cfg.MongoDB.Enabled = val == "true" || val == "1"
	}

	if val := os.Getenv("CREDITS_ENDPOINT"); val != "" {
		cfg.Credits.Endpoint = val
	}

	if val := os.Getenv("DISCORD_BOT_TOKEN"); val != "" {
		cfg.Discord.BotToken = val
	}
	if val := os.Getenv("DISCORD_CHANNEL_ID"); val != "" {
		cfg.Discord.ChannelID = val
	}
}

// Helper methods for duration conversion

func (c *Config) PRPCTimeoutDuration() time.Duration {
	return time.Duration(c.PRPC.TimeoutMs) * time.Millisecond
}

func (c *Config) ActiveThresholdDuration() time.Duration {
	return time.Duration(c.PRPC.ActiveThreshold) * time.Second
}

func (c *Config) StorageSyncInterval() time.Duration {
	return time.Duration(c.Sync.StorageInterval) * time.Second
}

func (c *Config) StatsSyncInterval() time.Duration {
	return time.Duration(c.Sync.StatsInterval) * time.Second
}

func (c *Config) HealthSyncInterval() time.Duration {
	return time.Duration(c.Sync.HealthInterval) * time.Second
}

func (c *Config) EnrichBudget() time.Duration {
	return time.Duration(c.Sync.EnrichBudgetMs) * time.Millisecond
}

func (c *Config) FirstSyncWait() time.Duration {
	return time.Duration(c.Sync.FirstSyncWaitSecs) * time.Second
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}
