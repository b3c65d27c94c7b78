package polling

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultInterval between reconciliation checks
const DefaultInterval = 15 * time.Second

// CheckFunc asks the backend to reconcile pending payments and returns how many changed
type CheckFunc func(ctx context.Context) (int, error)

// Poller periodically reconciles pending payments while enabled. Errors are
// logged and swallowed; the next tick simply retries.
type Poller struct {
	check    CheckFunc
	onUpdate func(updated int)
	interval time.Duration

	mu      sync.Mutex
	enabled bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option defines a function type to modify the Poller instance.
type Option func(*Poller)

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// New creates a stopped poller. onUpdate runs on the polling goroutine and must
// not call Stop.
func New(check CheckFunc, onUpdate func(updated int), options ...Option) *Poller {
	p := &Poller{
		check:    check,
		onUpdate: onUpdate,
		interval: DefaultInterval,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// SetEnabled starts or stops the loop
func (p *Poller) SetEnabled(enabled bool) {
	if enabled {
		p.Start()
		return
	}
	p.Stop()
}

// Start runs one check immediately and then one per interval. Calling Start on
// a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.enabled = true
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop cancels the loop and waits for it to exit. A check already in flight
// has its context cancelled and its result discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.enabled {
		p.mu.Unlock()
		return
	}
	p.enabled = false
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	updated, err := p.check(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Debug().Err(err).Msg("Polling: pending payment check failed")
		return
	}
	if updated > 0 && p.onUpdate != nil {
		p.onUpdate(updated)
	}
}
