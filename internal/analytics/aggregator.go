package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// ErrAggregatorStopped is returned when starting an aggregator that has already stopped.
var ErrAggregatorStopped = errors.New("aggregator stopped")

// State is the aggregator lifecycle phase.
type State int

const (
	Idle State = iota
	Running
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config tunes the aggregator.
type Config struct {
	// FlushInterval is the time between ledger commits.
	FlushInterval time.Duration
	// QueueLimit bounds the visit queue; a full queue drops the visit. Zero is an unbuffered
	// handoff to the worker: Submit waits for the worker's next receive, which never does I/O,
	// and visits are never dropped while running.
	QueueLimit int
	// DrainTimeout caps a graceful Shutdown before it falls back to Abort.
	DrainTimeout time.Duration
}

// DefaultConfig returns the aggregator defaults.
func DefaultConfig() Config {
	return Config{
		FlushInterval: time.Second,
		QueueLimit:    0,
		DrainTimeout:  5 * time.Second,
	}
}

// Aggregator folds visit events into per-alias counts and commits them to a Ledger
// periodically.
//
// One worker goroutine owns the pending counts; a second goroutine commits batches so that
// submitters never wait on ledger I/O. At most one batch is in flight; ticks that arrive
// while it is committing are skipped and the counts roll into the next cycle.
type Aggregator struct {
	ledger  Ledger
	config  Config
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu    sync.RWMutex
	state State

	visits  chan shortener.Alias
	batches chan map[shortener.Alias]int64
	flushed chan struct{}
	drain   chan struct{}
	abort   chan struct{}
	done    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	abortOnce sync.Once
	doneOnce  sync.Once
}

// NewAggregator creates an idle aggregator. Call Start to begin accepting visits.
func NewAggregator(ledger Ledger, config Config, m *metrics.Metrics, logger *zap.Logger) *Aggregator {
	defaults := DefaultConfig()

	if config.FlushInterval <= 0 {
		config.FlushInterval = defaults.FlushInterval
	}

	if config.DrainTimeout <= 0 {
		config.DrainTimeout = defaults.DrainTimeout
	}

	if config.QueueLimit < 0 {
		config.QueueLimit = 0
	}

	return &Aggregator{
		ledger:  ledger,
		config:  config,
		metrics: m,
		logger:  logger,
		visits:  make(chan shortener.Alias, config.QueueLimit),
		batches: make(chan map[shortener.Alias]int64, 1),
		flushed: make(chan struct{}, 1),
		drain:   make(chan struct{}),
		abort:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the worker. Ledger commits are detached from ctx cancellation so that a
// graceful shutdown can still flush; only Abort cancels them.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case Idle:
	case Stopped:
		return ErrAggregatorStopped
	default:
		return nil
	}

	a.ctx, a.cancel = context.WithCancel(context.WithoutCancel(ctx))
	a.state = Running

	flusherDone := make(chan struct{})

	go a.flushLoop(flusherDone)
	go a.run(flusherDone)

	a.logger.Info("click aggregator started",
		zap.Duration("flushInterval", a.config.FlushInterval),
		zap.Int("queueLimit", a.config.QueueLimit),
	)

	return nil
}

// Submit enqueues one visit for alias. It reports false when the visit was dropped, either
// because the aggregator is not running or because a bounded queue is full.
func (a *Aggregator) Submit(alias shortener.Alias) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.state != Running {
		a.metrics.VisitDropped()

		return false
	}

	if a.config.QueueLimit == 0 {
		a.visits <- alias

		return true
	}

	select {
	case a.visits <- alias:
		return true
	default:
		a.metrics.VisitDropped()
		a.logger.Debug("visit queue full, dropping visit", zap.String("alias", string(alias)))

		return false
	}
}

// Record submits a visit and discards the outcome.
func (a *Aggregator) Record(_ context.Context, alias shortener.Alias) {
	a.Submit(alias)
}

// State returns the current lifecycle phase.
func (a *Aggregator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.state
}

// Shutdown drains within the configured DrainTimeout. A drain that times out aborts and is
// logged, not returned, so the services stopped after the aggregator still get released.
func (a *Aggregator) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.DrainTimeout)
	defer cancel()

	if err := a.ShutdownContext(ctx); err != nil {
		a.logger.Error("click aggregator stopped without a final flush", zap.Error(err))
	}

	return nil
}

// ShutdownContext stops accepting visits, folds in those already queued, waits for an
// in-flight commit and commits what remains. If ctx ends first the aggregator is aborted
// and the remaining counts are lost.
func (a *Aggregator) ShutdownContext(ctx context.Context) error {
	a.mu.Lock()

	switch a.state {
	case Idle:
		a.state = Stopped
		a.mu.Unlock()
		a.markDone()

		return nil
	case Running:
		a.state = Draining
		a.mu.Unlock()
		close(a.drain)

		a.logger.Info("draining click aggregator")
	default:
		a.mu.Unlock()
	}

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		a.logger.Warn("click aggregator drain timed out, aborting")
		a.Abort()

		return fmt.Errorf("drain aggregator: %w", ctx.Err())
	}
}

// Abort stops immediately, cancelling any in-flight commit and discarding pending counts.
func (a *Aggregator) Abort() {
	a.mu.Lock()
	prev := a.state
	cancel := a.cancel
	a.state = Stopped
	a.mu.Unlock()

	a.abortOnce.Do(func() { close(a.abort) })

	if prev == Idle {
		a.markDone()
	}

	if cancel != nil {
		cancel()
	}

	<-a.done
}

func (a *Aggregator) markDone() {
	a.doneOnce.Do(func() { close(a.done) })
}

func (a *Aggregator) run(flusherDone <-chan struct{}) {
	ticker := time.NewTicker(a.config.FlushInterval)

	defer func() {
		ticker.Stop()
		close(a.batches)
		<-flusherDone

		a.mu.Lock()
		a.state = Stopped
		a.mu.Unlock()

		a.markDone()
		a.logger.Info("click aggregator stopped")
	}()

	pending := make(map[shortener.Alias]int64)
	inFlight := false

	for {
		select {
		case alias := <-a.visits:
			pending[alias]++
		case <-a.flushed:
			inFlight = false
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}

			if inFlight {
				a.logger.Debug("flush still in flight, deferring batch", zap.Int("aliases", len(pending)))

				continue
			}

			a.batches <- pending
			pending = make(map[shortener.Alias]int64)
			inFlight = true
		case <-a.drain:
			a.finish(pending, inFlight)

			return
		case <-a.abort:
			a.discard(pending)

			return
		}
	}
}

// finish runs the drain sequence. No new visits can arrive once Draining is set, so the
// queue is read until empty.
func (a *Aggregator) finish(pending map[shortener.Alias]int64, inFlight bool) {
absorb:
	for {
		select {
		case alias := <-a.visits:
			pending[alias]++
		default:
			break absorb
		}
	}

	if inFlight {
		select {
		case <-a.flushed:
		case <-a.abort:
			a.discard(pending)

			return
		}
	}

	if len(pending) == 0 {
		return
	}

	a.batches <- pending

	select {
	case <-a.flushed:
	case <-a.abort:
	}
}

func (a *Aggregator) discard(pending map[shortener.Alias]int64) {
	if len(pending) == 0 {
		return
	}

	a.logger.Warn("discarding unflushed clicks",
		zap.Int("aliases", len(pending)),
		zap.Int64("clicks", sum(pending)),
	)
}

func (a *Aggregator) flushLoop(done chan<- struct{}) {
	defer close(done)

	for batch := range a.batches {
		a.flush(batch)
		a.flushed <- struct{}{}
	}
}

func (a *Aggregator) flush(counts map[shortener.Alias]int64) {
	clicks := sum(counts)

	if err := a.ledger.AppendClicks(a.ctx, time.Now().UTC(), counts); err != nil {
		a.metrics.FlushCycle(metrics.FlushError, clicks)
		a.logger.Error("failed to flush clicks, batch discarded",
			zap.Int("aliases", len(counts)),
			zap.Int64("clicks", clicks),
			zap.Error(err),
		)

		return
	}

	a.metrics.FlushCycle(metrics.FlushOK, clicks)
	a.logger.Debug("flushed clicks",
		zap.Int("aliases", len(counts)),
		zap.Int64("clicks", clicks),
	)
}

func sum(counts map[shortener.Alias]int64) int64 {
	var total int64
	for _, n := range counts {
		total += n
	}

	return total
}
