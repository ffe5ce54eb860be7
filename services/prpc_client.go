package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"pnodepulse/config"
	"pnodepulse/models"
)

// RPCUnreachableError reports a single failed pRPC call: timeout, transport
// failure, non-2xx response or an RPC-level error.
type RPCUnreachableError struct {
	Target string
	Method string
	Err    error
}

func (e *RPCUnreachableError) Error() string {
	return fmt.Sprintf("prpc %s unreachable for %s: %v", e.Target, e.Method, e.Err)
}

func (e *RPCUnreachableError) Unwrap() error { return e.Err }

// AllSeedsUnreachableError means every configured seed failed for a method.
// Without a seed there is no roster, so this propagates to the API boundary.
type AllSeedsUnreachableError struct {
	Method  string
	LastErr error
}

func (e *AllSeedsUnreachableError) Error() string {
	return fmt.Sprintf("all pNode seeds unreachable for %s: %v", e.Method, e.LastErr)
}

func (e *AllSeedsUnreachableError) Unwrap() error { return e.LastErr }

// PRPCClient sends JSON-RPC 2.0 calls to pNodes. One call, one hard timeout,
// no retries; retry policy belongs to the callers' schedules.
type PRPCClient struct {
	cfg        *config.Config
	httpClient *http.Client
}

func NewPRPCClient(cfg *config.Config) *PRPCClient {
	return &PRPCClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.PRPCTimeoutDuration(),
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   cfg.PRPCTimeoutDuration(),
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}
}

// normalizeTarget appends the default pRPC port when the seed is configured
// as a bare host.
func (c *PRPCClient) normalizeTarget(target string) string {
	if _, _, err := net.SplitHostPort(target); err != nil {
		return net.JoinHostPort(target, strconv.Itoa(c.cfg.PRPC.DefaultPort))
	}
	return target
}

// CallPRPC sends a single JSON-RPC call to one node.
func (c *PRPCClient) CallPRPC(ctx context.Context, target, method string) (json.RawMessage, error) {
	target = c.normalizeTarget(target)

	reqBody := models.RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("http://%s%s", target, c.cfg.PRPC.Path)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &RPCUnreachableError{Target: target, Method: method, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RPCUnreachableError{Target: target, Method: method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RPCUnreachableError{
			Target: target,
			Method: method,
			Err:    fmt.Errorf("http status %d", resp.StatusCode),
		}
	}

	var rpcResp models.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &RPCUnreachableError{Target: target, Method: method, Err: fmt.Errorf("decode response: %w", err)}
	}

	if rpcResp.Error != nil {
		return nil, &RPCUnreachableError{
			Target: target,
			Method: method,
			Err:    fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message),
		}
	}

	return rpcResp.Result, nil
}

// CallWithFallback walks the ordered seed list and returns the first
// successful result. Each seed is attempted exactly once; a failed seed never
// blocks the next one.
func (c *PRPCClient) CallWithFallback(ctx context.Context, method string) (json.RawMessage, error) {
	var lastErr error

	for _, seed := range c.cfg.PRPC.Seeds {
		result, err := c.CallPRPC(ctx, seed, method)
		if err == nil {
			return result, nil
		}
		log.Printf("[pRPC] Seed failed: %s (%s): %v", seed, method, err)
		lastErr = err
	}

	return nil, &AllSeedsUnreachableError{Method: method, LastErr: lastErr}
}

// Typed wrappers

func (c *PRPCClient) GetVersion(ctx context.Context) (*models.VersionResponse, error) {
	result, err := c.CallWithFallback(ctx, "get-version")
	if err != nil {
		return nil, err
	}

	var verResp models.VersionResponse
	if err := json.Unmarshal(result, &verResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal version result: %w", err)
	}
	return &verResp, nil
}

func (c *PRPCClient) GetPods(ctx context.Context) (*models.PodsResponse, error) {
	result, err := c.CallWithFallback(ctx, "get-pods")
	if err != nil {
		return nil, err
	}

	var podsResp models.PodsResponse
	if err := json.Unmarshal(result, &podsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pods result: %w", err)
	}
	return &podsResp, nil
}

func (c *PRPCClient) GetPodsWithStats(ctx context.Context) (*models.PodsResponse, error) {
	result, err := c.CallWithFallback(ctx, "get-pods-with-stats")
	if err != nil {
		return nil, err
	}

	var podsResp models.PodsResponse
	if err := json.Unmarshal(result, &podsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pods result: %w", err)
	}
	return &podsResp, nil
}

// GetSeedStats fetches get-stats through the seed fallback chain.
func (c *PRPCClient) GetSeedStats(ctx context.Context) (*models.StatsResponse, error) {
	result, err := c.CallWithFallback(ctx, "get-stats")
	if err != nil {
		return nil, err
	}

	var statsResp models.StatsResponse
	if err := json.Unmarshal(result, &statsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats result: %w", err)
	}
	return &statsResp, nil
}

// GetNodeStats fetches get-stats directly from one node's advertised rpc
// port, bypassing the seed fallback.
func (c *PRPCClient) GetNodeStats(ctx context.Context, target string) (*models.StatsResponse, error) {
	result, err := c.CallPRPC(ctx, target, "get-stats")
	if err != nil {
		return nil, err
	}

	var statsResp models.StatsResponse
	if err := json.Unmarshal(result, &statsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats from %s: %w", target, err)
	}
	return &statsResp, nil
}
