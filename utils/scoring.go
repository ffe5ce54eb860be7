package utils

import (
	"fmt"
	"math"
	"sort"
	"time"

	"pnodepulse/models"
)

// Weighting of the per-node health blend: liveness matters more than
// version compliance.
const (
	freshnessWeight = 0.7
	versionWeight   = 0.3
)

// FreshnessScore maps seconds-since-last-seen onto a step function relative to
// the active threshold T: 1.0 within T, 0.7 within 2T, 0.4 within 5T, 0.1 beyond.
func FreshnessScore(secondsAgo, threshold int64) float64 {
	switch {
	case secondsAgo <= threshold:
		return 1.0
	case secondsAgo <= threshold*2:
		return 0.7
	case secondsAgo <= threshold*5:
		return 0.4
	default:
		return 0.1
	}
}

// VersionScore penalizes nodes off the majority version. An unknown majority
// never penalizes.
func VersionScore(nodeVersion, majorityVersion string) float64 {
	if majorityVersion == "" || nodeVersion == majorityVersion {
		return 1.0
	}
	return 0.6
}

// NodeHealth blends freshness and version compliance into a 0-100 score.
func NodeHealth(secondsAgo, threshold int64, nodeVersion, majorityVersion string) int {
	health := FreshnessScore(secondsAgo, threshold)*freshnessWeight +
		VersionScore(nodeVersion, majorityVersion)*versionWeight
	return int(math.Round(health * 100))
}

// NodeStatus is memoryless: active iff the node was seen within the threshold,
// boundary inclusive.
func NodeStatus(secondsAgo, threshold int64) string {
	if secondsAgo <= threshold {
		return models.StatusActive
	}
	return models.StatusInactive
}

// MajorityVersion returns the version with the highest occurrence count.
// Ties break to the lexicographically smallest version so the result is
// deterministic regardless of map iteration order.
func MajorityVersion(counts map[string]int) string {
	versions := make([]string, 0, len(counts))
	for v := range counts {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	majority := ""
	maxCount := 0
	for _, v := range versions {
		if counts[v] > maxCount {
			majority = v
			maxCount = counts[v]
		}
	}
	return majority
}

// ClassifyRisk maps a risk score onto a level.
func ClassifyRisk(score int) string {
	if score >= 80 {
		return models.RiskLow
	}
	if score >= 60 {
		return models.RiskMedium
	}
	return models.RiskHigh
}

// NetworkRisk scores the whole network by penalizing inactivity and version
// drift. Starts at 100; inactive >20% costs 25 points (>10% costs 15),
// outdated >25% costs 25 points (>10% costs 15); clamped to [0,100].
func NetworkRisk(totalNodes, activeNodes, outdatedNodes int, majorityVersion string) models.RiskReport {
	inactive := totalNodes - activeNodes

	var inactivePct, outdatedPct float64
	if totalNodes > 0 {
		inactivePct = float64(inactive) / float64(totalNodes) * 100
		outdatedPct = float64(outdatedNodes) / float64(totalNodes) * 100
	}

	score := 100

	if inactivePct > 20 {
		score -= 25
	} else if inactivePct > 10 {
		score -= 15
	}

	if outdatedPct > 25 {
		score -= 25
	} else if outdatedPct > 10 {
		score -= 15
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	reasons := []string{}
	recommendations := []string{}

	if inactivePct > 10 {
		reasons = append(reasons, fmt.Sprintf("%.1f%% of nodes are inactive", inactivePct))
		recommendations = append(recommendations, "Investigate nodes inactive beyond the activity threshold")
	}
	if outdatedPct > 10 {
		reasons = append(reasons, fmt.Sprintf("%.1f%% of nodes are running non-majority versions", outdatedPct))
		recommendations = append(recommendations, fmt.Sprintf("Encourage upgrade to majority version (%s)", majorityVersion))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "No significant risk factors detected")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "No immediate action required")
	}

	return models.RiskReport{
		Scope: "network",
		Risk: models.Risk{
			Level: ClassifyRisk(score),
			Score: score,
		},
		Metrics: models.RiskMetrics{
			TotalNodes:         totalNodes,
			ActiveNodes:        activeNodes,
			InactiveNodes:      inactive,
			InactivePercentage: int(math.Round(inactivePct)),
			OutdatedNodes:      outdatedNodes,
			OutdatedPercentage: int(math.Round(outdatedPct)),
			MajorityVersion:    majorityVersion,
		},
		Reasons:         reasons,
		Recommendations: recommendations,
		Timestamp:       time.Now().Unix(),
	}
}
