package bridge

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"

	"github.com/jitsi/jicofo-go/internal/events"
	"github.com/jitsi/jicofo-go/internal/logger"
)

const (
	meterName = "github.com/jitsi/jicofo-go/internal/bridge"

	defaultCheckConcurrency = 8
)

type bridgeState uint8

const (
	stateUnknown bridgeState = iota
	stateHealthy
	stateUnhealthy
)

type (
	// Publisher is the part of the event bus the Monitor needs.
	// Publish is called while the Monitor holds its lock and must not block.
	Publisher interface {
		Publish(event events.Event)
	}

	// Monitor periodically health checks the known bridges and publishes
	// a bridge up or down event whenever a bridge changes its state.
	// Needs to be started with the Start method and stopped with the Stop method.
	Monitor struct {
		logger      *logger.Logger
		publisher   Publisher
		checker     HealthChecker
		interval    time.Duration
		concurrency int

		transitions metric.Int64Counter

		mu     sync.Mutex
		states map[string]bridgeState

		wg     sync.WaitGroup
		cancel context.CancelFunc
	}

	MonitorOption func(*monitorOptions)

	monitorOptions struct {
		meterProvider metric.MeterProvider
		concurrency   int
	}
)

// WithMeterProvider sets the provider of the transition counter.
func WithMeterProvider(mp metric.MeterProvider) MonitorOption {
	return func(o *monitorOptions) {
		o.meterProvider = mp
	}
}

// WithCheckConcurrency limits how many bridges are checked in parallel.
func WithCheckConcurrency(n int) MonitorOption {
	return func(o *monitorOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func NewMonitor(log *logger.Logger, publisher Publisher, checker HealthChecker, bridges []string, interval time.Duration, opts ...MonitorOption) (*Monitor, error) {
	if interval <= 0 {
		return nil, errors.New("bridge check interval must be positive")
	}

	o := monitorOptions{
		meterProvider: noop.NewMeterProvider(),
		concurrency:   defaultCheckConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}

	transitions, err := o.meterProvider.Meter(meterName).Int64Counter(
		"jicofo.bridge.transitions",
		metric.WithDescription("Number of bridge availability transitions"),
	)
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		logger:      log,
		publisher:   publisher,
		checker:     checker,
		interval:    interval,
		concurrency: o.concurrency,
		transitions: transitions,
		states:      make(map[string]bridgeState, len(bridges)),
	}
	for _, jid := range bridges {
		m.states[jid] = stateUnknown
	}
	return m, nil
}

func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Go(func() {
		m.runLoop(ctx)
	})
}

func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.wg.Wait()
}

// AddBridge starts monitoring the bridge, returns false if it is already monitored.
// Its first successful health check publishes a bridge up event.
func (m *Monitor) AddBridge(bridgeJID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, found := m.states[bridgeJID]; found {
		return false
	}
	m.states[bridgeJID] = stateUnknown
	return true
}

// RemoveBridge stops monitoring the bridge, publishing a bridge down
// event if it was last seen healthy. Returns false if the bridge was not monitored.
func (m *Monitor) RemoveBridge(ctx context.Context, bridgeJID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, found := m.states[bridgeJID]
	if !found {
		return false
	}
	delete(m.states, bridgeJID)
	if prev == stateHealthy {
		m.publish(ctx, events.CreateBridgeDown(bridgeJID))
	}
	return true
}

// Bridges returns the monitored bridge JIDs in sorted order.
func (m *Monitor) Bridges() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.states))
}

func (m *Monitor) runLoop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// check right away instead of waiting for the first tick
	m.checkBridges(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkBridges(ctx)
		}
	}
}

// checkBridges health checks every monitored bridge once and publishes
// the resulting transitions in bridge JID order.
func (m *Monitor) checkBridges(ctx context.Context) {
	ctx = context.WithValue(ctx, logger.StateIDKey, uuid.New().String())
	ctx = context.WithValue(ctx, logger.ComponentKey, "bridge-monitor")
	log := m.logger.WithContext(ctx)

	bridges := m.Bridges()
	results := make([]bridgeState, len(bridges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, jid := range bridges {
		g.Go(func() error {
			if err := m.checker.CheckHealth(gctx, jid); err != nil {
				m.logger.WithContext(context.WithValue(ctx, logger.BridgeKey, jid)).
					Debug("Bridge health check failed", "error", err.Error())
				results[i] = stateUnhealthy
				return nil
			}
			results[i] = stateHealthy
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		// results of cancelled checks say nothing about the bridges
		return
	}

	// publish under the lock so that RemoveBridge cannot interleave
	// its down event between a state change and the matching event
	transitions := 0
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, jid := range bridges {
		prev, found := m.states[jid]
		if !found {
			// removed while being checked
			continue
		}
		m.states[jid] = results[i]
		if e, changed := transition(jid, prev, results[i]); changed {
			m.publish(ctx, e)
			transitions++
		}
	}
	log.Debug("Bridge health check round finished", "bridges", len(bridges), "transitions", transitions)
}

func transition(bridgeJID string, prev, next bridgeState) (events.BridgeEvent, bool) {
	switch {
	case next == stateHealthy && prev != stateHealthy:
		return events.CreateBridgeUp(bridgeJID), true
	case next == stateUnhealthy && prev == stateHealthy:
		return events.CreateBridgeDown(bridgeJID), true
	default:
		return events.BridgeEvent{}, false
	}
}

// publish must be called with m.mu held; the publisher must not block.
func (m *Monitor) publish(ctx context.Context, e events.BridgeEvent) {
	jid, _ := e.BridgeJID()
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", string(e.Topic()))))
	m.logger.WithContext(context.WithValue(ctx, logger.BridgeKey, jid)).
		Info("Bridge availability changed", "state", e.Kind().String())
	m.publisher.Publish(e)
}
