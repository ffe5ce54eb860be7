package models

import "time"

// PodCreditsResponse is the bulk payload from the external credits provider.
type PodCreditsResponse struct {
	Status      string      `json:"status"`
	PodsCredits []PodCredit `json:"pods_credits"`
}

type PodCredit struct {
	PodID   string `json:"pod_id"`
	Credits int64  `json:"credits"`
}

// PodCredits is a tracked standing for one pod, keyed by pubkey.
type PodCredits struct {
	Pubkey        string    `json:"pubkey"`
	Credits       int64     `json:"credits"`
	Rank          int       `json:"rank"`
	CreditsChange int64     `json:"credits_change"`
	LastUpdated   time.Time `json:"last_updated"`
}
