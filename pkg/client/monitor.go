// Package client provides HTTP clients for communicating with pulsewatch services.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/HatiCode/pulsewatch/pkg/storage"
)

// StaleHeader is set to "true" by the monitor when the snapshot is older
// than its stale-after threshold.
const StaleHeader = "X-Pulsewatch-Stale"

// ErrNotFound is returned when the monitor has no snapshot for the device.
var ErrNotFound = errors.New("snapshot not found")

// MonitorClient fetches live snapshots from the monitor service.
// It is safe for concurrent use by multiple goroutines.
type MonitorClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMonitorClient creates a client for the monitor at baseURL
// (e.g. "http://localhost:8080") with a 5s request timeout.
func NewMonitorClient(baseURL string) *MonitorClient {
	return NewMonitorClientWithTimeout(baseURL, 5*time.Second)
}

// NewMonitorClientWithTimeout creates a client with a custom timeout.
func NewMonitorClientWithTimeout(baseURL string, timeout time.Duration) *MonitorClient {
	return &MonitorClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SnapshotResult contains the snapshot and whether the monitor marked it stale.
type SnapshotResult struct {
	Snapshot storage.Snapshot
	Stale    bool
}

// GetSnapshot fetches the latest snapshot for device from GET /state.
// It returns an error wrapping ErrNotFound when the monitor has none.
func (c *MonitorClient) GetSnapshot(ctx context.Context, device string) (*SnapshotResult, error) {
	if device == "" {
		return nil, errors.New("device cannot be empty")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = "/state"
	query := u.Query()
	query.Set("device", device)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w for device %q", ErrNotFound, device)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var snapshot storage.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &SnapshotResult{
		Snapshot: snapshot,
		Stale:    resp.Header.Get(StaleHeader) == "true",
	}, nil
}

// IsStale reports whether snapshot is older than staleAfter.
func IsStale(snapshot storage.Snapshot, staleAfter time.Duration) bool {
	return time.Since(snapshot.GeneratedAt) > staleAfter
}
