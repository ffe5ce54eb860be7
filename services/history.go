package services

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"pnodepulse/models"
)

// HistoryService turns the raw snapshot series into fixed-size trend charts.
// Snapshots are grouped into aligned time buckets and averaged; buckets with
// no snapshot are filled with synthesized points so charts always render a
// full series, with the synthetic flag telling consumers which is which.
type HistoryService struct {
	snapshots *SnapshotStore
}

func NewHistoryService(snapshots *SnapshotStore) *HistoryService {
	return &HistoryService{snapshots: snapshots}
}

type rangeSpec struct {
	interval   time.Duration
	points     int
	timeFormat string
}

var rangeSpecs = map[string]rangeSpec{
	"1h":  {interval: 2 * time.Minute, points: 30, timeFormat: "15:04"},
	"24h": {interval: time.Hour, points: 24, timeFormat: "15:00"},
	"30d": {interval: 24 * time.Hour, points: 30, timeFormat: "Jan 2"},
}

// BuildHistory returns the bucketized trend for a range of "1h", "24h" or
// "30d".
func (h *HistoryService) BuildHistory(rangeStr string) (*models.HistoryResponse, error) {
	spec, ok := rangeSpecs[rangeStr]
	if !ok {
		return nil, fmt.Errorf("invalid range %q: must be one of 1h, 24h, 30d", rangeStr)
	}

	now := time.Now()
	intervalMs := spec.interval.Milliseconds()
	currentBucket := now.UnixMilli() / intervalMs * intervalMs
	span := spec.interval * time.Duration(spec.points)

	snapshots := h.snapshots.Since(now.Add(-span).UnixMilli())

	type bucketAgg struct {
		count         int
		networkHealth int
		activeNodes   int
		riskScore     int
		outdatedPct   int
	}
	buckets := make(map[int64]*bucketAgg)
	for _, snap := range snapshots {
		key := snap.Timestamp / intervalMs * intervalMs
		agg, ok := buckets[key]
		if !ok {
			agg = &bucketAgg{}
			buckets[key] = agg
		}
		agg.count++
		agg.networkHealth += snap.NetworkHealth
		agg.activeNodes += snap.ActiveNodes
		agg.riskScore += snap.RiskScore
		agg.outdatedPct += snap.OutdatedPercentage
	}

	latest, hasLatest := h.snapshots.Latest()

	data := make([]models.TrendPoint, 0, spec.points)
	realPoints := 0

	for i := 0; i < spec.points; i++ {
		key := currentBucket - int64(spec.points-1-i)*intervalMs
		label := time.UnixMilli(key).Format(spec.timeFormat)

		if agg, ok := buckets[key]; ok {
			data = append(data, models.TrendPoint{
				Timestamp:     label,
				NetworkHealth: agg.networkHealth / agg.count,
				ActiveNodes:   agg.activeNodes / agg.count,
				RiskScore:     agg.riskScore / agg.count,
				VersionDrift:  agg.outdatedPct / agg.count,
				Synthetic:     false,
			})
			realPoints++
			continue
		}

		// The newest bucket tracks the present: when nothing landed in it yet,
		// carry the latest snapshot forward instead of inventing a value.
		if i == spec.points-1 && hasLatest {
			data = append(data, models.TrendPoint{
				Timestamp:     label,
				NetworkHealth: latest.NetworkHealth,
				ActiveNodes:   latest.ActiveNodes,
				RiskScore:     latest.RiskScore,
				VersionDrift:  latest.OutdatedPercentage,
				Synthetic:     false,
			})
			realPoints++
			continue
		}

		data = append(data, syntheticPoint(label, i))
	}

	return &models.HistoryResponse{
		Data:           data,
		RealDataPoints: realPoints,
		TotalPoints:    spec.points,
		HasRealData:    realPoints > 0,
		Range:          rangeStr,
	}, nil
}

// syntheticPoint fabricates a plausible filler value with a gentle wave plus
// jitter, keeping empty charts readable before enough snapshots accumulate.
func syntheticPoint(label string, i int) models.TrendPoint {
	health := 85 + math.Sin(float64(i)/5)*8 + rand.Float64()*5
	active := 40 + math.Sin(float64(i)/3)*4 + rand.Float64()*3
	risk := 80 + math.Sin(float64(i)/4)*10 + rand.Float64()*5

	return models.TrendPoint{
		Timestamp:     label,
		NetworkHealth: clampInt(int(health), 0, 100),
		ActiveNodes:   clampInt(int(active), 0, math.MaxInt32),
		RiskScore:     clampInt(int(risk), 0, 100),
		VersionDrift:  clampInt(int(rand.Float64()*10), 0, 100),
		Synthetic:     true,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
