package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"butce/internal/log"
)

// Resyncer performs one full copy of the ledger.
type Resyncer interface {
	Resync(ctx context.Context) error
}

// ResyncProcessor runs a Resyncer at startup and then on a fixed interval.
type ResyncProcessor struct {
	resyncer Resyncer
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewResyncProcessor builds a processor. A zero interval resyncs only once,
// at startup.
func NewResyncProcessor(r Resyncer, interval time.Duration, logger *log.Logger) *ResyncProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &ResyncProcessor{
		resyncer: r,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the loop. Returns an error if already running.
func (p *ResyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("resync processor is already running")
	}
	p.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	p.stopCh, p.doneCh = stopCh, doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	p.logger.InfoContext(ctx, "Resync processor started", "interval", p.interval.String())
	return nil
}

// Stop signals the loop and waits for it, or for ctx.
func (p *ResyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Resync processor stopped")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Resync processor stop timed out")
		return ctx.Err()
	}
}

func (p *ResyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop owns the channels of one Start; a later Start gets its own.
func (p *ResyncProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	// Stop interrupts an in-flight resync.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.runOnce(ctx)
	if p.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *ResyncProcessor) runOnce(ctx context.Context) {
	if err := p.resyncer.Resync(ctx); err != nil && ctx.Err() == nil {
		p.logger.ErrorContext(ctx, "Resync failed", log.FieldError, err)
	}
}
