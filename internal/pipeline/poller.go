package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cycleTimeout caps how long one polling cycle may take, including all
// of its mailbox and backend calls.
const cycleTimeout = 5 * time.Minute

// Poller runs pipeline cycles at a fixed interval. Cycles never
// overlap: the next one starts only after the previous returned and
// the interval elapsed.
type Poller struct {
	pipeline *Pipeline
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	lastCycle time.Time
}

// NewPoller creates a Poller driving the given pipeline.
func NewPoller(p *Pipeline, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Poller{
		pipeline: p,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Run blocks, executing one cycle immediately and then one per
// interval, until ctx is canceled or Stop is called.
func (p *Poller) Run(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// Stop halts the polling loop after the current cycle.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// LastCycle returns when the most recent cycle completed.
func (p *Poller) LastCycle() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCycle
}

// runCycle executes one pipeline cycle under the cycle timeout.
func (p *Poller) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	p.pipeline.RunCycle(cycleCtx)

	p.mu.Lock()
	p.lastCycle = time.Now()
	p.mu.Unlock()

	p.logger.Info("waiting for next cycle",
		zap.Duration("interval", p.interval),
	)
}
