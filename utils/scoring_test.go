package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pnodepulse/models"
)

func TestFreshnessScore(t *testing.T) {
	threshold := int64(300)

	assert.Equal(t, 1.0, FreshnessScore(0, threshold))
	assert.Equal(t, 1.0, FreshnessScore(300, threshold), "boundary is inclusive")
	assert.Equal(t, 0.7, FreshnessScore(301, threshold))
	assert.Equal(t, 0.7, FreshnessScore(600, threshold))
	assert.Equal(t, 0.4, FreshnessScore(601, threshold))
	assert.Equal(t, 0.4, FreshnessScore(1500, threshold))
	assert.Equal(t, 0.1, FreshnessScore(1501, threshold))
	assert.Equal(t, 0.1, FreshnessScore(1000000, threshold))
}

func TestVersionScore(t *testing.T) {
	assert.Equal(t, 1.0, VersionScore("1.0.0", "1.0.0"))
	assert.Equal(t, 0.6, VersionScore("0.9.0", "1.0.0"))
	assert.Equal(t, 1.0, VersionScore("0.9.0", ""), "unknown majority never penalizes")
}

func TestNodeHealth(t *testing.T) {
	// Fresh node on the majority version scores a perfect 100.
	assert.Equal(t, 100, NodeHealth(10, 300, "1.0.0", "1.0.0"))

	// Fresh node off the majority: 0.7*1.0 + 0.3*0.6 = 0.88.
	assert.Equal(t, 88, NodeHealth(10, 300, "0.9.0", "1.0.0"))

	// Stale node on the majority: 0.7*0.1 + 0.3*1.0 = 0.37.
	assert.Equal(t, 37, NodeHealth(10000, 300, "1.0.0", "1.0.0"))

	// Stale and off-majority: 0.7*0.1 + 0.3*0.6 = 0.25.
	assert.Equal(t, 25, NodeHealth(10000, 300, "0.9.0", "1.0.0"))
}

func TestNodeStatus(t *testing.T) {
	assert.Equal(t, models.StatusActive, NodeStatus(0, 300))
	assert.Equal(t, models.StatusActive, NodeStatus(300, 300), "exactly at threshold is active")
	assert.Equal(t, models.StatusInactive, NodeStatus(301, 300))
}

func TestMajorityVersion(t *testing.T) {
	assert.Equal(t, "1.0.0", MajorityVersion(map[string]int{
		"1.0.0": 2,
		"0.9.0": 1,
	}))

	assert.Equal(t, "", MajorityVersion(map[string]int{}))
}

func TestMajorityVersionTieIsDeterministic(t *testing.T) {
	counts := map[string]int{
		"0.9.0": 3,
		"1.0.0": 3,
	}

	for i := 0; i < 20; i++ {
		assert.Equal(t, "0.9.0", MajorityVersion(counts))
	}
}

func TestClassifyRisk(t *testing.T) {
	assert.Equal(t, models.RiskLow, ClassifyRisk(100))
	assert.Equal(t, models.RiskLow, ClassifyRisk(80))
	assert.Equal(t, models.RiskMedium, ClassifyRisk(79))
	assert.Equal(t, models.RiskMedium, ClassifyRisk(60))
	assert.Equal(t, models.RiskHigh, ClassifyRisk(59))
	assert.Equal(t, models.RiskHigh, ClassifyRisk(0))
}

func TestNetworkRiskHealthy(t *testing.T) {
	report := NetworkRisk(100, 95, 5, "1.0.0")

	assert.Equal(t, 100, report.Risk.Score)
	assert.Equal(t, models.RiskLow, report.Risk.Level)
	assert.Equal(t, []string{"No significant risk factors detected"}, report.Reasons)
	assert.Equal(t, []string{"No immediate action required"}, report.Recommendations)
}

func TestNetworkRiskHighInactivity(t *testing.T) {
	// 30% inactive costs 25 points.
	report := NetworkRisk(100, 70, 0, "1.0.0")

	assert.Equal(t, 75, report.Risk.Score)
	assert.Equal(t, models.RiskMedium, report.Risk.Level)
	assert.Equal(t, 30, report.Metrics.InactivePercentage)
	assert.Contains(t, report.Reasons[0], "30.0% of nodes are inactive")
}

func TestNetworkRiskModerateInactivity(t *testing.T) {
	// 15% inactive costs 15 points.
	report := NetworkRisk(100, 85, 0, "1.0.0")

	assert.Equal(t, 85, report.Risk.Score)
	assert.Equal(t, models.RiskLow, report.Risk.Level)
}

func TestNetworkRiskVersionDrift(t *testing.T) {
	// 30% outdated costs 25 points.
	report := NetworkRisk(100, 100, 30, "1.0.0")

	assert.Equal(t, 75, report.Risk.Score)
	assert.Equal(t, 30, report.Metrics.OutdatedPercentage)
	assert.Contains(t, report.Reasons[0], "30.0% of nodes are running non-majority versions")
	assert.Contains(t, report.Recommendations[0], "1.0.0")
}

func TestNetworkRiskCompound(t *testing.T) {
	// 30% inactive and 30% outdated: 100 - 25 - 25 = 50.
	report := NetworkRisk(100, 70, 30, "1.0.0")

	assert.Equal(t, 50, report.Risk.Score)
	assert.Equal(t, models.RiskHigh, report.Risk.Level)
	assert.Len(t, report.Reasons, 2)
}

func TestNetworkRiskEmptyNetwork(t *testing.T) {
	report := NetworkRisk(0, 0, 0, "")

	assert.Equal(t, 100, report.Risk.Score)
	assert.Equal(t, models.RiskLow, report.Risk.Level)
}
