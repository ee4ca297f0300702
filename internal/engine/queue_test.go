package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpQueue_FIFO(t *testing.T) {
	q := newOpQueue()

	q.Enqueue(Op{Type: OpSetInt, Key: "a", Int: 1})
	q.Enqueue(Op{Type: OpSetInt, Key: "b", Int: 2})
	q.Enqueue(Op{Type: OpFlush})
	assert.Equal(t, 3, q.Len())

	op, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "a", op.Key)

	op, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "b", op.Key)

	op, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, OpFlush, op.Type)

	_, ok = q.TryDequeue()
	assert.False(t, ok, "queue drained")
}

func TestOpQueue_EnqueueAfterClose(t *testing.T) {
	q := newOpQueue()
	q.Close()
	assert.False(t, q.Enqueue(Op{Type: OpFlush}))
	q.Close() // double close is safe
}

func TestOpQueue_SignalCoalesces(t *testing.T) {
	q := newOpQueue()
	q.Enqueue(Op{Type: OpFlush})
	q.Enqueue(Op{Type: OpFlush})

	// One buffered signal regardless of enqueue count.
	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("second signal should not be pending")
	default:
	}
}

func TestOpType_String(t *testing.T) {
	tests := []struct {
		op   OpType
		want string
	}{
		{OpSetInt, "set_int"},
		{OpAddInt, "add_int"},
		{OpSubInt, "sub_int"},
		{OpSetString, "set_string"},
		{OpSetBool, "set_bool"},
		{OpAddToSet, "add_to_set"},
		{OpRemoveFromSet, "remove_from_set"},
		{OpFlush, "flush"},
		{OpType(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.String())
	}
}
