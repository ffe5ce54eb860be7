package services

import (
	"context"
	"log"
	"math"
	"net"
	"sync"
	"time"

	"pnodepulse/config"
	"pnodepulse/models"
	"pnodepulse/utils"
)

// Aggregator assembles the dashboard roster. Each pass fetches the pod list
// through the seed fallback chain, scores every node, merges the storage and
// stats caches and runs geolocation enrichment in bounded batches under a
// wall-clock budget. Enrichment that misses the budget leaves the remaining
// nodes' geo fields absent rather than failing the pass.
type Aggregator struct {
	cfg     *config.Config
	client  *PRPCClient
	geo     *utils.GeoResolver
	storage *StorageSync
	stats   *StatsSync
	credits *CreditsService

	versionCfg *utils.VersionConfig
}

func NewAggregator(cfg *config.Config, client *PRPCClient, geo *utils.GeoResolver, storage *StorageSync, stats *StatsSync, credits *CreditsService) *Aggregator {
	return &Aggregator{
		cfg:        cfg,
		client:     client,
		geo:        geo,
		storage:    storage,
		stats:      stats,
		credits:    credits,
		versionCfg: &utils.DefaultVersionConfig,
	}
}

// BuildRoster produces the full roster and network summary. It fails only
// when no seed can provide the pod list; every enrichment source is optional.
func (a *Aggregator) BuildRoster(ctx context.Context) (*models.Roster, error) {
	podsResp, err := a.client.GetPods(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	threshold := int64(a.cfg.PRPC.ActiveThreshold)

	versionCounts := make(map[string]int)
	for _, pod := range podsResp.Pods {
		versionCounts[pod.Version]++
	}
	majority := utils.MajorityVersion(versionCounts)

	nodes := make([]models.NodeRecord, 0, len(podsResp.Pods))
	for _, pod := range podsResp.Pods {
		nodes = append(nodes, a.buildNode(pod, now, threshold, majority))
	}

	a.enrichGeo(ctx, nodes)

	summary := a.buildSummary(ctx, nodes, versionCounts, majority)

	return &models.Roster{
		Summary: summary,
		PNodes:  nodes,
	}, nil
}

func (a *Aggregator) buildNode(pod models.Pod, now, threshold int64, majority string) models.NodeRecord {
	secondsAgo := now - pod.LastSeenTimestamp
	if secondsAgo < 0 {
		secondsAgo = 0
	}

	status := utils.NodeStatus(secondsAgo, threshold)
	health := utils.NodeHealth(secondsAgo, threshold, pod.Version, majority)

	flags := []string{}
	if status == models.StatusInactive {
		flags = append(flags, models.FlagOffline)
	}
	if majority != "" && pod.Version != majority {
		flags = append(flags, models.FlagOutdated)
	}

	versionStatus, severity := utils.CheckVersionStatus(pod.Version, a.versionCfg)

	node := models.NodeRecord{
		Address:         pod.Address,
		Version:         pod.Version,
		LastSeen:        pod.LastSeenTimestamp,
		Status:          status,
		HealthScore:     health,
		Flags:           flags,
		VersionStatus:   versionStatus,
		UpgradeSeverity: severity,
	}

	if entry, ok := a.storage.Get(pod.Address); ok {
		isPublic := entry.IsPublic
		committed := entry.StorageCommitted
		used := entry.StorageUsed
		usagePct := entry.StorageUsagePercent
		uptime := entry.Uptime

		node.IsPublic = &isPublic
		node.StorageCommitted = &committed
		node.StorageUsed = &used
		node.StorageUsagePercent = &usagePct
		node.UptimeSeconds = &uptime

		if a.credits != nil && entry.Pubkey != "" {
			if credits, ok := a.credits.GetCredits(entry.Pubkey); ok {
				node.Credits = &credits
			}
		}
	}

	if entry, ok := a.stats.Get(pod.Address); ok {
		cpu := entry.CPUPercent
		ramUsed := entry.RAMUsed
		ramTotal := entry.RAMTotal
		rx := entry.PacketsReceived
		tx := entry.PacketsSent
		streams := entry.ActiveStreams

		node.CPUPercent = &cpu
		node.RAMUsedBytes = &ramUsed
		node.RAMTotalBytes = &ramTotal
		node.PacketsReceived = &rx
		node.PacketsSent = &tx
		node.ActiveStreams = &streams
	}

	return node
}

// enrichGeo resolves node locations in bounded batches. The whole enrichment
// shares one deadline; whichever batches complete before it fire their fields
// in, the rest stay absent until the next pass.
func (a *Aggregator) enrichGeo(ctx context.Context, nodes []models.NodeRecord) {
	if a.geo == nil || len(nodes) == 0 {
		return
	}

	batchSize := a.cfg.Sync.EnrichBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	enrichCtx, cancel := context.WithTimeout(ctx, a.cfg.EnrichBudget())
	defer cancel()

	for start := 0; start < len(nodes); start += batchSize {
		if enrichCtx.Err() != nil {
			log.Printf("[Aggregator] Geo enrichment budget exhausted after %d/%d nodes", start, len(nodes))
			return
		}

		end := start + batchSize
		if end > len(nodes) {
			end = len(nodes)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(n *models.NodeRecord) {
				defer wg.Done()

				host, _, err := net.SplitHostPort(n.Address)
				if err != nil {
					host = n.Address
				}

				entry, ok := a.geo.Lookup(enrichCtx, host)
				if !ok {
					return
				}

				country := entry.Country
				city := entry.City
				lat := entry.Latitude
				lon := entry.Longitude

				n.Country = &country
				n.City = &city
				n.Latitude = &lat
				n.Longitude = &lon
			}(&nodes[i])
		}
		wg.Wait()
	}
}

func (a *Aggregator) buildSummary(ctx context.Context, nodes []models.NodeRecord, versionCounts map[string]int, majority string) models.NetworkSummary {
	summary := models.NetworkSummary{
		TotalKnown:          len(nodes),
		MajorityVersion:     majority,
		VersionDistribution: versionCounts,
		CountryDistribution: make(map[string]int),
		LastUpdated:         time.Now().Unix(),
	}

	for i := range nodes {
		n := &nodes[i]

		if n.Status == models.StatusActive {
			summary.Active++
			if n.StorageUsed != nil {
				summary.AggregateStorageUsed += *n.StorageUsed
			}
		} else {
			summary.Inactive++
		}

		if n.Country != nil && *n.Country != "" {
			summary.CountryDistribution[*n.Country]++
		}

		if n.IsPublic != nil {
			if *n.IsPublic {
				summary.PublicNodes++
			} else {
				summary.PrivateNodes++
			}
		}
	}

	if len(nodes) > 0 {
		summary.NetworkHealth = int(math.Round(float64(summary.Active) / float64(len(nodes)) * 100))
	}

	// Total committed network storage comes from the seed's own view.
	if stats, err := a.client.GetSeedStats(ctx); err == nil {
		summary.NetworkStorageTotal = stats.FileSize
	} else {
		log.Printf("[Aggregator] Seed stats unavailable: %v", err)
	}

	return summary
}
