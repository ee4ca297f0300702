package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/factoid/internal/fact"
	"github.com/roach88/factoid/internal/notify"
)

// Sink receives each flushed notification batch, stamped with its tick.
// Implemented by the journal; a nil sink disables recording.
type Sink interface {
	Record(ctx context.Context, tick int64, batch []notify.Notification) error
}

// Engine is the single-writer loop that owns a fact store and its bus.
//
// Host code enqueues write ops from any goroutine; the Run loop applies
// them in FIFO order from exactly one goroutine. A flush op marks a tick
// boundary: the bus drains the store's changed-sets and delivers
// notifications before the next op is processed.
//
// Thread-safety model:
//   - Enqueue: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Store reads (via Store()) are safe at any time - the store carries
//     its own lock
type Engine struct {
	store *fact.Store
	bus   *notify.Bus
	clock *Clock
	queue *opQueue
	sink  Sink
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink records every flushed batch to the given sink (e.g. a journal).
func WithSink(s Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithClock replaces the tick clock, e.g. to resume numbering or to use a
// deterministic clock in tests.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine around the given store and bus.
func New(store *fact.Store, bus *notify.Bus, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		bus:   bus,
		clock: NewClock(),
		queue: newOpQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the engine's fact store for synchronous reads.
func (e *Engine) Store() *fact.Store {
	return e.store
}

// Clock returns the engine's tick clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// QueueLen returns the number of pending ops. Useful for tests.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Enqueue submits an op for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(op Op) bool {
	return e.queue.Enqueue(op)
}

// Stop closes the op queue. Run returns once the remaining ops drain.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Run starts the single-writer loop. Blocks until the context is cancelled
// or Stop has been called and the queue is drained.
//
// Op failures are logged and processing continues - no store op is fatal,
// and the only fallible step (the sink) must not stall the loop.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")

	for {
		op, ok := e.queue.TryDequeue()
		if ok {
			if err := e.apply(ctx, op); err != nil {
				slog.Error("op processing failed",
					"error", err,
					"op", op.Type.String(),
					"key", op.Key,
				)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed, so this
			// case fires immediately once Stop has been called.
			if e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// apply executes one op against the store or flushes a tick.
// Called only from the Run goroutine.
func (e *Engine) apply(ctx context.Context, op Op) error {
	if op.Type == OpFlush {
		return e.flush(ctx)
	}

	changed := Apply(e.store, op)
	slog.Debug("op applied",
		"op", op.Type.String(),
		"key", op.Key,
		"changed", changed,
	)
	return nil
}

// flush drains the changed-sets, delivers notifications, and records the
// batch to the sink if one is configured.
func (e *Engine) flush(ctx context.Context) error {
	tick := e.clock.Next()
	batch := e.bus.Flush(e.store)

	slog.Debug("tick flushed",
		"tick", tick,
		"notifications", len(batch),
	)

	if e.sink == nil || len(batch) == 0 {
		return nil
	}
	if err := e.sink.Record(ctx, tick, batch); err != nil {
		return fmt.Errorf("record tick %d: %w", tick, err)
	}
	return nil
}

// Apply executes one write op against a store directly, outside any engine.
// Used by the harness and the eval command, which drive a store without a
// run loop. Flush ops are not valid here.
func Apply(s *fact.Store, op Op) bool {
	switch op.Type {
	case OpSetInt:
		return s.SetInt(op.Key, op.Int)
	case OpAddInt:
		return s.AddInt(op.Key, op.Int)
	case OpSubInt:
		return s.SubInt(op.Key, op.Int)
	case OpSetString:
		return s.SetString(op.Key, op.Str)
	case OpSetBool:
		return s.SetBool(op.Key, op.Bool)
	case OpAddToSet:
		return s.AddToSet(op.Key, op.Member)
	case OpRemoveFromSet:
		return s.RemoveFromSet(op.Key, op.Member)
	default:
		return false
	}
}
