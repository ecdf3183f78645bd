package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"sync"
	"time"
)

// ErrUnknownBridge is returned when a health check is requested for a bridge
// without a configured health endpoint.
var ErrUnknownBridge = errors.New("unknown bridge")

// HealthChecker checks whether a bridge is currently functional.
// A nil error means healthy.
type HealthChecker interface {
	CheckHealth(ctx context.Context, bridgeJID string) error
}

// HTTPHealthChecker polls the REST health endpoint of each JVB
// (usually http://<bridge>:8080/about/health).
type HTTPHealthChecker struct {
	httpClient *http.Client

	mu        sync.RWMutex
	endpoints map[string]string
}

func NewHTTPHealthChecker(endpoints map[string]string, timeout time.Duration) *HTTPHealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPHealthChecker{
		httpClient: &http.Client{Timeout: timeout},
		endpoints:  maps.Clone(endpoints),
	}
}

// SetEndpoint adds or replaces the health endpoint of a bridge.
func (c *HTTPHealthChecker) SetEndpoint(bridgeJID, healthURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.endpoints == nil {
		c.endpoints = make(map[string]string)
	}
	c.endpoints[bridgeJID] = healthURL
}

func (c *HTTPHealthChecker) RemoveEndpoint(bridgeJID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.endpoints, bridgeJID)
}

func (c *HTTPHealthChecker) CheckHealth(ctx context.Context, bridgeJID string) error {
	c.mu.RLock()
	healthURL, found := c.endpoints[bridgeJID]
	c.mu.RUnlock()
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownBridge, bridgeJID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}
	return nil
}
