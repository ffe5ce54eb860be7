package models

import "encoding/json"

// JSON-RPC 2.0 Request
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// JSON-RPC 2.0 Response
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// JSON-RPC 2.0 Error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// get-version response
type VersionResponse struct {
	Version string `json:"version"`
}

// get-stats response (called directly against a node's own rpc port)
type StatsResponse struct {
	// Storage metadata
	TotalBytes   int64 `json:"total_bytes"`
	TotalPages   int   `json:"total_pages"`
	LastUpdated  int64 `json:"last_updated"`
	FileSize     int64 `json:"file_size"`
	CurrentIndex int   `json:"current_index"`

	// System stats
	CPUPercent      float64 `json:"cpu_percent"`
	RAMUsed         int64   `json:"ram_used"`
	RAMTotal        int64   `json:"ram_total"`
	Uptime          int64   `json:"uptime"`
	PacketsReceived int64   `json:"packets_received"`
	PacketsSent     int64   `json:"packets_sent"`
	ActiveStreams   int     `json:"active_streams"`
}

// get-pods / get-pods-with-stats response
type PodsResponse struct {
	Pods       []Pod `json:"pods"`
	TotalCount int   `json:"total_count"`
}

type Pod struct {
	Address           string `json:"address"`
	Pubkey            string `json:"pubkey"`
	Version           string `json:"version"`
	LastSeenTimestamp int64  `json:"last_seen_timestamp"`

	// Only present in get-pods-with-stats
	RpcPort             int     `json:"rpc_port,omitempty"`
	IsPublic            bool    `json:"is_public,omitempty"`
	StorageCommitted    int64   `json:"storage_committed,omitempty"`
	StorageUsed         int64   `json:"storage_used,omitempty"`
	StorageUsagePercent float64 `json:"storage_usage_percent,omitempty"`
	Uptime              int64   `json:"uptime,omitempty"`
}
