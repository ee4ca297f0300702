package fact

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetInt_ChangeDetection(t *testing.T) {
	s := NewStore()

	assert.True(t, s.SetInt("count", 5), "first write of non-default value should change")
	assert.False(t, s.SetInt("count", 5), "repeated identical write should not change")
	assert.True(t, s.SetInt("count", 6), "different value should change")
}

func TestStore_SetInt_DefaultWriteMasking(t *testing.T) {
	s := NewStore()

	// Absent key compares against default 0: first write of 0 is unchanged
	// but the key still becomes readable.
	assert.False(t, s.SetInt("x", 0), "writing the default to an absent key reports unchanged")

	v, ok := s.GetInt("x")
	require.True(t, ok, "key should be readable after the masked write")
	assert.Equal(t, int64(0), v)

	assert.Empty(t, s.DrainChanged(KindInt), "masked write must not enter the changed-set")
}

func TestStore_SetString_SetBool_Defaults(t *testing.T) {
	s := NewStore()

	assert.False(t, s.SetString("name", ""), "empty string masks against absence default")
	assert.False(t, s.SetBool("flag", false), "false masks against absence default")

	_, ok := s.GetString("name")
	assert.True(t, ok)
	_, ok = s.GetBool("flag")
	assert.True(t, ok)

	assert.True(t, s.SetString("name", "alice"))
	assert.False(t, s.SetString("name", "alice"))
	assert.True(t, s.SetBool("flag", true))
	assert.False(t, s.SetBool("flag", true))
}

func TestStore_AddInt_SubInt(t *testing.T) {
	s := NewStore()

	assert.True(t, s.AddInt("score", 10), "add from absent default 0")
	v, ok := s.GetInt("score")
	require.True(t, ok)
	assert.Equal(t, int64(10), v)

	assert.True(t, s.SubInt("score", 3))
	v, _ = s.GetInt("score")
	assert.Equal(t, int64(7), v)

	assert.False(t, s.AddInt("score", 0), "zero delta is not a change")
}

func TestStore_AddInt_NoDoubleBookkeeping(t *testing.T) {
	s := NewStore()

	s.SetInt("button_pressed", 0)
	s.AddInt("button_pressed", 1)
	s.AddInt("button_pressed", 1)
	s.AddInt("button_pressed", 1)

	v, ok := s.GetInt("button_pressed")
	require.True(t, ok)
	assert.Equal(t, int64(3), v)

	// Changed-set is a set, not a counter: the key appears exactly once
	// no matter how many times it changed since the last drain.
	keys := s.DrainChanged(KindInt)
	assert.Equal(t, []string{"button_pressed"}, keys)
}

func TestStore_SetSemantics(t *testing.T) {
	s := NewStore()

	assert.True(t, s.AddToSet("h", "a"), "first insert changes")
	assert.False(t, s.AddToSet("h", "a"), "duplicate insert is a no-op")

	members, ok := s.GetSet("h")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, members)

	assert.True(t, s.RemoveFromSet("h", "a"))
	assert.False(t, s.RemoveFromSet("h", "a"), "removing a missing member is a no-op")
	assert.False(t, s.RemoveFromSet("nope", "a"), "removing from an absent key is a no-op")

	members, ok = s.GetSet("h")
	require.True(t, ok, "set fact survives removal of its last member")
	assert.Empty(t, members)
}

func TestStore_GetSet_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AddToSet("tags", "b")
	s.AddToSet("tags", "a")

	members, ok := s.GetSet("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, members, "members come back sorted")

	members[0] = "mutated"
	fresh, _ := s.GetSet("tags")
	assert.Equal(t, []string{"a", "b"}, fresh, "caller mutation must not leak into the store")
}

func TestStore_Get_TaggedAccessor(t *testing.T) {
	s := NewStore()
	s.SetInt("n", 1)
	s.SetString("s", "v")
	s.SetBool("b", true)
	s.AddToSet("m", "x")

	tests := []struct {
		kind Kind
		key  string
		want Value
	}{
		{KindInt, "n", Int(1)},
		{KindString, "s", String("v")},
		{KindBool, "b", Bool(true)},
		{KindSet, "m", NewSet("x")},
	}
	for _, tt := range tests {
		v, ok := s.Get(tt.kind, tt.key)
		require.True(t, ok, "%s/%s should exist", tt.kind, tt.key)
		assert.True(t, Equal(tt.want, v), "%s/%s value mismatch", tt.kind, tt.key)
	}

	_, ok := s.Get(KindInt, "s")
	assert.False(t, ok, "namespaces are independent: string key is absent under int")
}

func TestStore_DrainChanged_Exclusivity(t *testing.T) {
	s := NewStore()
	s.SetInt("a", 1)
	s.SetInt("b", 2)

	keys := s.DrainChanged(KindInt)
	assert.Equal(t, []string{"a", "b"}, keys, "drained keys are sorted")

	assert.Nil(t, s.DrainChanged(KindInt), "immediate second drain is empty")

	s.SetInt("c", 3)
	assert.Equal(t, []string{"c"}, s.DrainChanged(KindInt), "new write repopulates")
}

func TestStore_DrainChanged_PerKindIsolation(t *testing.T) {
	s := NewStore()
	s.SetInt("k", 1)
	s.SetString("k", "v")
	s.SetBool("k", true)
	s.AddToSet("k", "m")

	assert.Equal(t, []string{"k"}, s.DrainChanged(KindInt))
	assert.Equal(t, []string{"k"}, s.DrainChanged(KindString), "int drain must not consume string changes")
	assert.Equal(t, []string{"k"}, s.DrainChanged(KindBool))
	assert.Equal(t, []string{"k"}, s.DrainChanged(KindSet))
}

func TestStore_ConcurrentAddInt_NoLostUpdates(t *testing.T) {
	s := NewStore()
	const goroutines = 50
	const addsPerGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < addsPerGoroutine; j++ {
				s.AddInt("counter", 1)
			}
		}()
	}
	wg.Wait()

	v, ok := s.GetInt("counter")
	require.True(t, ok)
	assert.Equal(t, int64(goroutines*addsPerGoroutine), v, "read-modify-write must be atomic")
}

func TestStore_ConcurrentWriteAndDrain(t *testing.T) {
	s := NewStore()
	const writers = 10
	const writes = 200

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < writes; j++ {
				s.SetInt("k", int64(id*writes+j))
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			for _, key := range s.DrainChanged(KindInt) {
				_, ok := s.GetInt(key)
				assert.True(t, ok, "a drained key must have a value")
			}
		}
	}()

	wg.Wait()
	<-done
}
