package models

// Node status values
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Node flags
const (
	FlagOffline  = "offline"
	FlagOutdated = "outdated"
)

// NodeRecord is one pNode as served to the dashboard. It is assembled fresh on
// every aggregation pass; enrichment fields are nil when the corresponding
// lookup failed or has not completed yet, never zero.
type NodeRecord struct {
	Address     string   `json:"address"`
	Version     string   `json:"version"`
	LastSeen    int64    `json:"last_seen"`
	Status      string   `json:"status"`
	HealthScore int      `json:"health_score"`
	Flags       []string `json:"flags"`

	// Version compliance (relative to published release train)
	VersionStatus   string `json:"version_status,omitempty"`
	UpgradeSeverity string `json:"upgrade_severity,omitempty"`

	// Geolocation enrichment
	Country   *string  `json:"country,omitempty"`
	City      *string  `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Storage enrichment
	IsPublic            *bool    `json:"is_public,omitempty"`
	StorageCommitted    *int64   `json:"storage_committed,omitempty"`
	StorageUsed         *int64   `json:"storage_used,omitempty"`
	StorageUsagePercent *float64 `json:"storage_usage_percent,omitempty"`
	Credits             *int64   `json:"credits,omitempty"`
	UptimeSeconds       *int64   `json:"uptime_seconds,omitempty"`

	// System stats enrichment (public nodes only)
	CPUPercent      *float64 `json:"cpu_percent,omitempty"`
	RAMUsedBytes    *int64   `json:"ram_used_bytes,omitempty"`
	RAMTotalBytes   *int64   `json:"ram_total_bytes,omitempty"`
	PacketsReceived *int64   `json:"packets_received,omitempty"`
	PacketsSent     *int64   `json:"packets_sent,omitempty"`
	ActiveStreams   *int     `json:"active_streams,omitempty"`
}

// NetworkSummary is computed once per aggregation pass.
type NetworkSummary struct {
	TotalKnown           int            `json:"total_known"`
	Active               int            `json:"active"`
	Inactive             int            `json:"inactive"`
	NetworkHealth        int            `json:"network_health"`
	MajorityVersion      string         `json:"majority_version"`
	VersionDistribution  map[string]int `json:"version_distribution"`
	CountryDistribution  map[string]int `json:"country_distribution"`
	PublicNodes          int            `json:"public_nodes"`
	PrivateNodes         int            `json:"private_nodes"`
	NetworkStorageTotal  int64          `json:"network_storage_total"`
	AggregateStorageUsed int64          `json:"aggregate_storage_used"`
	LastUpdated          int64          `json:"last_updated"`
}

// Roster is the full aggregation result.
type Roster struct {
	Summary NetworkSummary `json:"summary"`
	PNodes  []NodeRecord   `json:"pNodes"`
}

// StorageEntry is one row of the pod_storage cache, keyed by address.
// Written only by the storage sync service.
type StorageEntry struct {
	Address             string  `json:"address" bson:"address"`
	IsPublic            bool    `json:"is_public" bson:"is_public"`
	LastSeenTimestamp   int64   `json:"last_seen_timestamp" bson:"last_seen_timestamp"`
	Pubkey              string  `json:"pubkey" bson:"pubkey"`
	RpcPort             int     `json:"rpc_port" bson:"rpc_port"`
	StorageCommitted    int64   `json:"storage_committed" bson:"storage_committed"`
	StorageUsed         int64   `json:"storage_used" bson:"storage_used"`
	StorageUsagePercent float64 `json:"storage_usage_percent" bson:"storage_usage_percent"`
	Uptime              int64   `json:"uptime" bson:"uptime"`
	Version             string  `json:"version" bson:"version"`
	Credits             int64   `json:"credits" bson:"credits"`
}

// NodeStatsEntry is one row of the node_stats cache, keyed by address.
// Populated only for public nodes; written only by the stats sync service.
type NodeStatsEntry struct {
	Address         string  `json:"address" bson:"address"`
	CPUPercent      float64 `json:"cpu_percent" bson:"cpu_percent"`
	RAMUsed         int64   `json:"ram_used" bson:"ram_used"`
	RAMTotal        int64   `json:"ram_total" bson:"ram_total"`
	ActiveStreams   int     `json:"active_streams" bson:"active_streams"`
	PacketsReceived int64   `json:"packets_received" bson:"packets_received"`
	PacketsSent     int64   `json:"packets_sent" bson:"packets_sent"`
	LastFetched     int64   `json:"last_fetched" bson:"last_fetched"`
}

// GeoEntry is one row of the geo_location cache, keyed by IP. Write-once:
// the first successful lookup wins and entries never expire.
type GeoEntry struct {
	IP        string  `json:"ip" bson:"ip"`
	Country   string  `json:"country" bson:"country"`
	City      string  `json:"city" bson:"city"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}
