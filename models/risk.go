package models

// Risk levels
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type Risk struct {
	Level string `json:"level"`
	Score int    `json:"score"`
}

type RiskMetrics struct {
	TotalNodes         int    `json:"total_nodes"`
	ActiveNodes        int    `json:"active_nodes"`
	InactiveNodes      int    `json:"inactive_nodes"`
	InactivePercentage int    `json:"inactive_percentage"`
	OutdatedNodes      int    `json:"outdated_nodes"`
	OutdatedPercentage int    `json:"outdated_percentage"`
	MajorityVersion    string `json:"majority_version"`
}

// RiskReport is the network-level risk assessment served by the API and
// consumed by the health sync and the alerting hook.
type RiskReport struct {
	Scope           string      `json:"scope"`
	Risk            Risk        `json:"risk"`
	Metrics         RiskMetrics `json:"metrics"`
	Reasons         []string    `json:"reasons"`
	Recommendations []string    `json:"recommendations"`
	Timestamp       int64       `json:"timestamp"`
}
