// Package reaper evicts expired tentative locks on a fixed interval and tells
// the resource's viewers the slot is free again.
package reaper

import (
	"context"
	"sync"
	"time"

	"bookfast/internal/locks"
	"bookfast/pkg/logger"
)

const DefaultInterval = 10 * time.Second

type Publisher = locks.Publisher

type Reaper struct {
	registry  *locks.Registry
	publisher Publisher
	interval  time.Duration
	log       *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func New(registry *locks.Registry, publisher Publisher, interval time.Duration, log *logger.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reaper{
		registry:  registry,
		publisher: publisher,
		interval:  interval,
		log:       log.Component("reaper"),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called.
// Calling Start on a running or stopped reaper does nothing.
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil || r.stopped {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)

	r.log.Info("Lock reaper started", "interval", r.interval.String())
}

// Stop ends the loop and waits for an in-flight sweep to finish. Safe to call
// more than once.
func (r *Reaper) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.log.Info("Lock reaper stopped")
}

// Sweep evicts every lock expired at now and publishes one unlock event per
// freed slot. It returns the number of evicted locks.
func (r *Reaper) Sweep(now time.Time) int {
	freed := r.registry.SweepAndPublish(now, r.publisher)
	if len(freed) > 0 {
		r.log.Debug("Expired locks reaped", "count", len(freed))
	}
	return len(freed)
}

func (r *Reaper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(r.registry.Now())
		}
	}
}
