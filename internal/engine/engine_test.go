package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factoid/internal/fact"
	"github.com/roach88/factoid/internal/notify"
)

// memorySink collects recorded batches for assertions.
type memorySink struct {
	mu      sync.Mutex
	ticks   []int64
	batches [][]notify.Notification
}

func (m *memorySink) Record(_ context.Context, tick int64, batch []notify.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, tick)
	m.batches = append(m.batches, batch)
	return nil
}

// runToDrain runs the engine until Stop drains the queue.
func runToDrain(t *testing.T, e *Engine) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	e.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not drain in time")
	}
}

func TestEngine_AppliesOpsInOrder(t *testing.T) {
	store := fact.NewStore()
	bus := notify.NewBus(&notify.SequentialGenerator{})
	e := New(store, bus)

	e.Enqueue(Op{Type: OpSetInt, Key: "n", Int: 5})
	e.Enqueue(Op{Type: OpAddInt, Key: "n", Int: 3})
	e.Enqueue(Op{Type: OpSubInt, Key: "n", Int: 1})
	e.Enqueue(Op{Type: OpSetString, Key: "s", Str: "v"})
	e.Enqueue(Op{Type: OpSetBool, Key: "b", Bool: true})
	e.Enqueue(Op{Type: OpAddToSet, Key: "m", Member: "x"})

	runToDrain(t, e)

	n, ok := store.GetInt("n")
	require.True(t, ok)
	assert.Equal(t, int64(7), n)
	s, _ := store.GetString("s")
	assert.Equal(t, "v", s)
	b, _ := store.GetBool("b")
	assert.True(t, b)
	members, _ := store.GetSet("m")
	assert.Equal(t, []string{"x"}, members)
}

func TestEngine_FlushDeliversAndRecords(t *testing.T) {
	store := fact.NewStore()
	bus := notify.NewBus(&notify.SequentialGenerator{})
	sink := &memorySink{}
	e := New(store, bus, WithSink(sink))

	var delivered []notify.Notification
	bus.Subscribe(func(n notify.Notification) { delivered = append(delivered, n) })

	e.Enqueue(Op{Type: OpSetInt, Key: "a", Int: 1})
	e.Enqueue(Op{Type: OpFlush})
	e.Enqueue(Op{Type: OpSetInt, Key: "b", Int: 2})
	e.Enqueue(Op{Type: OpFlush})

	runToDrain(t, e)

	require.Len(t, delivered, 2)
	assert.Equal(t, "a", delivered[0].Key)
	assert.Equal(t, "b", delivered[1].Key)

	require.Equal(t, []int64{1, 2}, sink.ticks, "ticks stamp flushes in order")
	assert.Len(t, sink.batches[0], 1)
	assert.Len(t, sink.batches[1], 1)
}

func TestEngine_EmptyFlushNotRecorded(t *testing.T) {
	store := fact.NewStore()
	bus := notify.NewBus(&notify.SequentialGenerator{})
	sink := &memorySink{}
	e := New(store, bus, WithSink(sink))

	e.Enqueue(Op{Type: OpFlush})
	runToDrain(t, e)

	assert.Empty(t, sink.ticks, "a flush with no changes records nothing")
	assert.Equal(t, int64(1), e.Clock().Current(), "the tick still advances")
}

func TestEngine_ContextCancellation(t *testing.T) {
	store := fact.NewStore()
	bus := notify.NewBus(&notify.SequentialGenerator{})
	e := New(store, bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop on cancellation")
	}

	assert.False(t, e.Enqueue(Op{Type: OpFlush}), "queue is closed after cancellation")
}

func TestEngine_WithClock(t *testing.T) {
	store := fact.NewStore()
	bus := notify.NewBus(&notify.SequentialGenerator{})
	e := New(store, bus, WithClock(NewClockAt(100)))

	e.Enqueue(Op{Type: OpSetInt, Key: "k", Int: 1})
	e.Enqueue(Op{Type: OpFlush})
	runToDrain(t, e)

	assert.Equal(t, int64(101), e.Clock().Current())
}

func TestApply_AllWriteOps(t *testing.T) {
	s := fact.NewStore()

	assert.True(t, Apply(s, Op{Type: OpSetInt, Key: "i", Int: 1}))
	assert.True(t, Apply(s, Op{Type: OpAddInt, Key: "i", Int: 1}))
	assert.True(t, Apply(s, Op{Type: OpSubInt, Key: "i", Int: 1}))
	assert.True(t, Apply(s, Op{Type: OpSetString, Key: "s", Str: "v"}))
	assert.True(t, Apply(s, Op{Type: OpSetBool, Key: "b", Bool: true}))
	assert.True(t, Apply(s, Op{Type: OpAddToSet, Key: "m", Member: "x"}))
	assert.True(t, Apply(s, Op{Type: OpRemoveFromSet, Key: "m", Member: "x"}))
	assert.False(t, Apply(s, Op{Type: OpFlush}), "flush is not a store write")
}
