package bridge

import (
	"context"
	"fmt"
	"net/url"
)

// Manager adds and removes bridges at runtime, keeping the health endpoint
// of the checker and the monitored set of the Monitor in step.
type Manager struct {
	monitor *Monitor
	checker *HTTPHealthChecker
}

func NewManager(monitor *Monitor, checker *HTTPHealthChecker) *Manager {
	return &Manager{monitor: monitor, checker: checker}
}

// AddBridge registers the health endpoint of the bridge and starts monitoring it.
// For an already monitored bridge only the endpoint is replaced and false is returned.
func (m *Manager) AddBridge(bridgeJID, healthURL string) (bool, error) {
	if bridgeJID == "" {
		return false, fmt.Errorf("bridge JID cannot be empty")
	}
	if err := ValidateHealthURL(healthURL); err != nil {
		return false, err
	}
	// the endpoint goes first so the next check round can already reach it
	m.checker.SetEndpoint(bridgeJID, healthURL)
	return m.monitor.AddBridge(bridgeJID), nil
}

// RemoveBridge stops monitoring the bridge and forgets its health endpoint.
// Returns false if the bridge was not monitored.
func (m *Manager) RemoveBridge(ctx context.Context, bridgeJID string) bool {
	removed := m.monitor.RemoveBridge(ctx, bridgeJID)
	m.checker.RemoveEndpoint(bridgeJID)
	return removed
}

// ValidateHealthURL checks that the URL is absolute.
func ValidateHealthURL(healthURL string) error {
	u, err := url.Parse(healthURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid health URL: %q", healthURL)
	}
	return nil
}
