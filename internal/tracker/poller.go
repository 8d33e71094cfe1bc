package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/habitgrid/internal/logger"
)

// DefaultPollInterval is how often the TUI refetches in the background
const DefaultPollInterval = 30 * time.Second

// Poller refreshes a tracker periodically so the grid picks up writes from
// other clients and recovers after a failed mutation
type Poller struct {
	tracker   *Tracker
	interval  time.Duration
	timeout   time.Duration
	mu        sync.Mutex
	onRefresh func(error) // Called after every background refresh
	stopCh    chan struct{}
	stopOnce  sync.Once
	started   bool
}

// NewPoller creates a poller. An interval of zero or less disables polling.
func NewPoller(t *Tracker, interval time.Duration) *Poller {
	return &Poller{
		tracker:  t,
		interval: interval,
		timeout:  15 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// SetTimeout bounds each background refresh
func (p *Poller) SetTimeout(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.timeout = d
	}
}

// SetOnRefresh sets a callback invoked after each background refresh
func (p *Poller) SetOnRefresh(callback func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRefresh = callback
}

// Start begins polling in the background
func (p *Poller) Start() {
	if p.interval <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	go p.pollLoop()
}

func (p *Poller) pollLoop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll()
		case <-p.stopCh:
			return
		}
	}
}

// poll refreshes once unless a foreground request is in flight
func (p *Poller) poll() bool {
	if p.tracker.Loading() {
		logger.Debug("Skipping background refresh, request in flight")
		return false
	}

	p.mu.Lock()
	timeout := p.timeout
	callback := p.onRefresh
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := p.tracker.Refresh(ctx)
	if callback != nil {
		callback(err)
	}
	return true
}

// Stop stops the poller; safe to call more than once
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}
