package engine

import "sync"

// OpType distinguishes the queued operations.
type OpType int

const (
	// OpSetInt stores an int fact.
	OpSetInt OpType = iota + 1
	// OpAddInt adds a delta to an int fact.
	OpAddInt
	// OpSubInt subtracts a delta from an int fact.
	OpSubInt
	// OpSetString stores a string fact.
	OpSetString
	// OpSetBool stores a bool fact.
	OpSetBool
	// OpAddToSet inserts a member into a set fact.
	OpAddToSet
	// OpRemoveFromSet removes a member from a set fact.
	OpRemoveFromSet
	// OpFlush marks a tick boundary: drain changed-sets and notify.
	OpFlush
)

// String returns the operation name as used in logs and scenario files.
func (t OpType) String() string {
	switch t {
	case OpSetInt:
		return "set_int"
	case OpAddInt:
		return "add_int"
	case OpSubInt:
		return "sub_int"
	case OpSetString:
		return "set_string"
	case OpSetBool:
		return "set_bool"
	case OpAddToSet:
		return "add_to_set"
	case OpRemoveFromSet:
		return "remove_from_set"
	case OpFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// Op is one queued store operation. Which payload fields are meaningful
// depends on Type: Int for the int writes, Str for set_string, Bool for
// set_bool, Member for the set ops. Flush carries no payload.
type Op struct {
	Type   OpType
	Key    string
	Int    int64
	Str    string
	Bool   bool
	Member string
}

// opQueue is a thread-safe FIFO queue of ops.
//
// Unbounded so producers never block; thread-safety covers external
// enqueuing (host event handlers) while the Engine's Run loop dequeues.
// A buffered signal channel enables context-aware waiting in the Run loop.
type opQueue struct {
	mu     sync.Mutex
	ops    []Op
	closed bool
	signal chan struct{} // Signals op availability (buffered, size 1)
}

func newOpQueue() *opQueue {
	return &opQueue{
		ops:    make([]Op, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an op to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *opQueue) Enqueue(op Op) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.ops = append(q.ops, op)

	// Non-blocking signal - the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Op{}, false) if the queue is empty.
func (q *opQueue) TryDequeue() (Op, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) == 0 {
		return Op{}, false
	}

	op := q.ops[0]
	if len(q.ops) == 1 {
		// Last element - reset to empty slice with original capacity.
		q.ops = q.ops[:0]
	} else {
		q.ops = q.ops[1:]
	}

	return op, true
}

// Wait returns a channel that signals when ops may be available.
// Use with select alongside ctx.Done().
func (q *opQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *opQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Close signals that no more ops will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *opQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
