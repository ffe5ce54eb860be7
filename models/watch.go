package models

// WatchEntry is one watched IP on the operator watchlist, keyed by IP.
type WatchEntry struct {
	IP        string `json:"ip" bson:"ip"`
	CreatedAt int64  `json:"created_at" bson:"created_at"`
}
