package models

// Snapshot is one persisted point-in-time summary of network health and risk.
// Snapshots are append-only; there is no update path.
type Snapshot struct {
	Timestamp          int64  `json:"timestamp" bson:"timestamp"` // epoch millis
	NetworkHealth      int    `json:"network_health" bson:"network_health"`
	ActiveNodes        int    `json:"active_nodes" bson:"active_nodes"`
	TotalNodes         int    `json:"total_nodes" bson:"total_nodes"`
	RiskScore          int    `json:"risk_score" bson:"risk_score"`
	RiskLevel          string `json:"risk_level" bson:"risk_level"`
	OutdatedNodes      int    `json:"outdated_nodes" bson:"outdated_nodes"`
	OutdatedPercentage int    `json:"outdated_percentage" bson:"outdated_percentage"`
}

// TrendPoint is one bucketized point of the history series.
type TrendPoint struct {
	Timestamp     string `json:"timestamp"`
	NetworkHealth int    `json:"network_health"`
	ActiveNodes   int    `json:"active_nodes"`
	RiskScore     int    `json:"risk_score"`
	VersionDrift  int    `json:"version_drift"`
	Synthetic     bool   `json:"synthetic"`
}

// HistoryResponse is the trend chart payload. RealDataPoints tells consumers
// how many points came from persisted snapshots versus synthesized filler.
type HistoryResponse struct {
	Data           []TrendPoint `json:"data"`
	RealDataPoints int          `json:"real_data_points"`
	TotalPoints    int          `json:"total_points"`
	HasRealData    bool         `json:"has_real_data"`
	Range          string       `json:"range"`
}
