package fact

import (
	"sort"
	"sync"
)

// Store is a typed fact registry with change tracking.
//
// Facts live in four independent namespaces, one per Kind. Every write
// reports whether the stored value actually changed, and a true change
// records the key in that kind's changed-set. Changed-sets are consumed
// via DrainChanged, which atomically returns and clears one kind's set.
//
// Thread-safety model:
//   - All operations take a single store-wide mutex.
//   - AddInt/SubInt are atomic read-modify-write: the read of the current
//     value and the write of the new one happen under one lock acquisition,
//     so a concurrent writer cannot cause a lost update.
//   - A write and a drain of the same kind cannot interleave: a drained key
//     always has a value in its namespace.
//
// The intended usage is still a single logical owner driving the store per
// tick; the mutex exists so a multi-goroutine host stays correct.
//
// ABSENCE SEMANTICS: set-style writes compare the new value against the
// kind's default (0, "", false) when the key has never been written. A first
// write of the default value is therefore reported as unchanged even though
// the key becomes readable. This matches the reference behavior and is
// deliberate; see SetInt.
type Store struct {
	mu sync.Mutex

	ints    map[string]int64
	strings map[string]string
	bools   map[string]bool
	sets    map[string]map[string]struct{}

	changed map[Kind]map[string]struct{}
}

// NewStore creates an empty fact store.
func NewStore() *Store {
	changed := make(map[Kind]map[string]struct{}, len(Kinds))
	for _, k := range Kinds {
		changed[k] = make(map[string]struct{})
	}
	return &Store{
		ints:    make(map[string]int64),
		strings: make(map[string]string),
		bools:   make(map[string]bool),
		sets:    make(map[string]map[string]struct{}),
		changed: changed,
	}
}

// SetInt stores v under the int namespace and reports whether it differed
// from the prior value. An absent key compares against the default 0, so
// a first write of 0 is reported as unchanged (the key still becomes
// readable via GetInt). On a true change the key enters the int changed-set.
func (s *Store) SetInt(key string, v int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ints[key] == v {
		s.ints[key] = v
		return false
	}
	s.ints[key] = v
	s.changed[KindInt][key] = struct{}{}
	return true
}

// AddInt adds delta to the current int value (default 0 if absent).
// Change detection is delegated entirely to the SetInt comparison.
// The read-compute-write sequence holds the store lock throughout.
func (s *Store) AddInt(key string, delta int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ints[key] + delta
	if s.ints[key] == next {
		s.ints[key] = next
		return false
	}
	s.ints[key] = next
	s.changed[KindInt][key] = struct{}{}
	return true
}

// SubInt subtracts delta from the current int value (default 0 if absent).
func (s *Store) SubInt(key string, delta int64) bool {
	return s.AddInt(key, -delta)
}

// SetString stores v under the string namespace. Same contract as SetInt,
// with "" as the absence default.
func (s *Store) SetString(key, v string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.strings[key] == v {
		s.strings[key] = v
		return false
	}
	s.strings[key] = v
	s.changed[KindString][key] = struct{}{}
	return true
}

// SetBool stores v under the bool namespace. Same contract as SetInt,
// with false as the absence default.
func (s *Store) SetBool(key string, v bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bools[key] == v {
		s.bools[key] = v
		return false
	}
	s.bools[key] = v
	s.changed[KindBool][key] = struct{}{}
	return true
}

// AddToSet inserts member into the string-set fact at key, creating the set
// if absent. Changed iff the set did not already contain member - duplicate
// inserts are no-ops and do not mark the key changed.
func (s *Store) AddToSet(key, member string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	if _, exists := set[member]; exists {
		return false
	}
	set[member] = struct{}{}
	s.changed[KindSet][key] = struct{}{}
	return true
}

// RemoveFromSet removes member from the string-set fact at key.
// Changed iff a removal actually occurred. Removing from an absent key
// is a no-op, not an error.
func (s *Store) RemoveFromSet(key, member string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return false
	}
	if _, exists := set[member]; !exists {
		return false
	}
	delete(set, member)
	s.changed[KindSet][key] = struct{}{}
	return true
}

// GetInt reads the int fact at key. The second result is false when the
// key has never been written under the int namespace.
func (s *Store) GetInt(key string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.ints[key]
	return v, ok
}

// GetString reads the string fact at key.
func (s *Store) GetString(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.strings[key]
	return v, ok
}

// GetBool reads the bool fact at key.
func (s *Store) GetBool(key string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.bools[key]
	return v, ok
}

// GetSet reads the string-set fact at key. Members are returned as a sorted
// copy - the caller cannot mutate the stored set through the result.
func (s *Store) GetSet(key string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return nil, false
	}
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Strings(members)
	return members, true
}

// Get reads the fact at key under the given kind as a tagged Value.
// Returns (nil, false) when absent.
func (s *Store) Get(kind Kind, key string) (Value, bool) {
	switch kind {
	case KindInt:
		if v, ok := s.GetInt(key); ok {
			return Int(v), true
		}
	case KindString:
		if v, ok := s.GetString(key); ok {
			return String(v), true
		}
	case KindBool:
		if v, ok := s.GetBool(key); ok {
			return Bool(v), true
		}
	case KindSet:
		if members, ok := s.GetSet(key); ok {
			return NewSet(members...), true
		}
	}
	return nil, false
}

// DrainChanged atomically returns and clears the changed-key set for one
// kind. An immediate second call returns nil. Keys are returned sorted
// lexicographically; the reference behavior leaves the order unspecified,
// so sorting is a documented determinism choice, not a contract inherited
// from elsewhere.
func (s *Store) DrainChanged(kind Kind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.changed[kind]
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.changed[kind] = make(map[string]struct{})
	return keys
}

// ChangedLen reports how many keys are pending in one kind's changed-set.
// Useful for tests and diagnostics; does not consume anything.
func (s *Store) ChangedLen(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.changed[kind])
}
