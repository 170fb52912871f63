package gtfsrt

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is used when a Poller is given a non-positive interval.
const DefaultInterval = 30 * time.Second

// Poller refreshes trip updates on an interval and serves the latest good
// result. A failed refresh keeps the previous Updates.
type Poller struct {
	client   *Client
	url      string
	interval time.Duration
	log      *zap.Logger

	latest   atomic.Pointer[Updates]
	lastPoll atomic.Int64
	failures atomic.Int64
}

// NewPoller creates a Poller for url. Call Run to start polling.
func NewPoller(client *Client, url string, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{client: client, url: url, interval: interval, log: log}
}

// Latest returns the most recent successfully decoded Updates, or nil.
func (p *Poller) Latest() *Updates {
	return p.latest.Load()
}

// LastPoll is the time of the last successful refresh.
func (p *Poller) LastPoll() time.Time {
	ns := p.lastPoll.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

// Failures counts refreshes that returned an error.
func (p *Poller) Failures() int64 {
	return p.failures.Load()
}

// Refresh fetches once and swaps in the result.
func (p *Poller) Refresh(ctx context.Context) error {
	start := time.Now()
	u, err := p.client.FetchUpdates(ctx, p.url)
	if err != nil {
		p.failures.Add(1)
		p.log.Warn("realtime refresh failed, keeping previous updates",
			zap.String("url", p.url), zap.Error(err))
		return err
	}
	if u == nil {
		return nil
	}
	p.latest.Store(u)
	p.lastPoll.Store(time.Now().UnixNano())
	p.log.Debug("realtime updates refreshed",
		zap.Int("trips", u.Len()),
		zap.Time("feed_timestamp", u.Timestamp()),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	if p.url == "" {
		p.log.Info("no realtime feed configured, poller idle")
		return
	}
	_ = p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = p.Refresh(ctx)
		case <-ctx.Done():
			p.log.Info("realtime polling stopped")
			return
		}
	}
}
