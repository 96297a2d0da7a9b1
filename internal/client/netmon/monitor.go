// Package netmon is the connectivity probe: it periodically pings the
// server's health endpoint and exposes the current reachability plus a
// change-notification stream.
package netmon

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ddanilovs/campuslink/internal/logging"
	"github.com/ddanilovs/campuslink/internal/stream"
)

// Pinger checks server reachability. Satisfied by remote.HTTPSource.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 3 * time.Second

// Monitor tracks online/offline state. The zero value is offline; state is
// only trusted after Run has had a chance to probe.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	logger   logging.Logger

	online  atomic.Bool
	changes *stream.Broadcaster[bool]
}

func NewMonitor(pinger Pinger, interval time.Duration, logger logging.Logger) *Monitor {
	return &Monitor{
		pinger:   pinger,
		interval: interval,
		logger:   logger,
		changes:  stream.New[bool](),
	}
}

// IsAvailable reports the last observed reachability.
func (m *Monitor) IsAvailable() bool {
	return m.online.Load()
}

// Changes returns the reachability change stream. A new subscriber
// receives the latest observed state first.
func (m *Monitor) Changes() *stream.Broadcaster[bool] {
	return m.changes
}

// Run probes immediately, then on every interval tick, until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := m.pinger.Ping(pingCtx)
	cancel()

	m.setOnline(ctx, err == nil)
}

func (m *Monitor) setOnline(ctx context.Context, online bool) {
	if m.online.Swap(online) != online {
		if online {
			m.logger.Info(ctx, "switched to online mode")
		} else {
			m.logger.Info(ctx, "switched to offline mode")
		}
		m.changes.Publish(online)
	}
}
