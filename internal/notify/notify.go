package notify

import (
	"log/slog"
	"sync"

	"github.com/roach88/factoid/internal/fact"
)

// Notification is a single change event: a key and its current value at
// flush time. Notifications are ephemeral - constructed during a flush,
// delivered, and discarded. They are never stored.
type Notification struct {
	Kind  fact.Kind
	Key   string
	Value fact.Value
}

// Listener receives notifications synchronously during a flush.
// Listeners must not block; long work belongs on the listener's own
// goroutine. A listener may write to the store - those writes land in the
// next flush cycle, never the one in progress.
type Listener func(Notification)

// Token identifies a subscription for later removal.
type Token string

// TokenGenerator produces subscription tokens.
// Implemented by UUIDv7Generator (production) and any fixed-sequence
// generator used by tests for deterministic output.
type TokenGenerator interface {
	Generate() string
}

// Bus fans changed-fact notifications out to registered listeners.
//
// Flush drains the store's changed-sets in fixed kind order (int, string,
// bool, set) with keys sorted within each kind, looks up every drained
// key's current value, and delivers one notification per key to each
// listener in registration order.
//
// Thread-safety: Subscribe and Unsubscribe are safe from any goroutine.
// Flush is intended to be called from the single owner driving the store
// (the engine's run loop).
type Bus struct {
	mu       sync.Mutex
	tokens   TokenGenerator
	order    []Token // registration order, preserved across unsubscribes
	handlers map[Token]Listener
}

// NewBus creates a bus using the given token generator.
// Pass UUIDv7Generator{} outside of tests.
func NewBus(tokens TokenGenerator) *Bus {
	return &Bus{
		tokens:   tokens,
		handlers: make(map[Token]Listener),
	}
}

// Subscribe registers a listener and returns its token.
func (b *Bus) Subscribe(fn Listener) Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	tok := Token(b.tokens.Generate())
	b.order = append(b.order, tok)
	b.handlers[tok] = fn
	return tok
}

// Unsubscribe removes a subscription. Unknown tokens are ignored.
func (b *Bus) Unsubscribe(tok Token) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.handlers[tok]; !ok {
		return
	}
	delete(b.handlers, tok)
	for i, t := range b.order {
		if t == tok {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// Flush drains all four changed-sets from the store and delivers one
// notification per drained key. It returns the notifications in delivery
// order so callers (engine, harness) can trace or journal them.
//
// The drain completes before any listener runs, so a listener that writes
// facts during delivery repopulates fresh changed-sets - those changes
// surface in the NEXT flush, and the in-progress one is never corrupted.
//
// A drained key whose value has disappeared is impossible under the store's
// locking discipline; the lookup miss is logged and skipped rather than
// treated as fatal.
func (b *Bus) Flush(s *fact.Store) []Notification {
	var batch []Notification
	for _, kind := range fact.Kinds {
		for _, key := range s.DrainChanged(kind) {
			v, ok := s.Get(kind, key)
			if !ok {
				slog.Warn("changed key missing value, skipping",
					"kind", kind.String(),
					"key", key,
				)
				continue
			}
			batch = append(batch, Notification{Kind: kind, Key: key, Value: v})
		}
	}

	if len(batch) == 0 {
		return nil
	}

	// Snapshot the listener list so delivery order is stable even if a
	// listener subscribes or unsubscribes mid-flush.
	b.mu.Lock()
	listeners := make([]Listener, 0, len(b.order))
	for _, tok := range b.order {
		if fn, ok := b.handlers[tok]; ok {
			listeners = append(listeners, fn)
		}
	}
	b.mu.Unlock()

	for _, n := range batch {
		for _, fn := range listeners {
			fn(n)
		}
	}
	return batch
}
