package rule

import (
	"fmt"

	"github.com/roach88/factoid/internal/fact"
)

// Condition is a sealed interface over the predicate variants.
// Only the types in this file implement it. Conditions form a tree:
// Not owns exactly one child, and there is no sharing between trees.
type Condition interface {
	// Evaluate reads the named fact from the store and reports whether the
	// predicate holds. An absent fact makes the condition false - a claim
	// about a fact that was never written is unproven, not an error.
	Evaluate(s *fact.Store) bool

	condition() // Sealed - only these types implement it
}

// StringEquals holds when the string fact at Key equals Value.
type StringEquals struct {
	Key   string
	Value string
}

func (StringEquals) condition() {}

// Evaluate implements Condition. Absent key evaluates false.
func (c StringEquals) Evaluate(s *fact.Store) bool {
	v, ok := s.GetString(c.Key)
	return ok && v == c.Value
}

// IntEquals holds when the int fact at Key equals Value.
type IntEquals struct {
	Key   string
	Value int64
}

func (IntEquals) condition() {}

// Evaluate implements Condition. Absent key evaluates false.
func (c IntEquals) Evaluate(s *fact.Store) bool {
	v, ok := s.GetInt(c.Key)
	return ok && v == c.Value
}

// IntGreaterThan holds when the int fact at Key is strictly greater
// than Value.
type IntGreaterThan struct {
	Key   string
	Value int64
}

func (IntGreaterThan) condition() {}

// Evaluate implements Condition. Absent key evaluates false.
func (c IntGreaterThan) Evaluate(s *fact.Store) bool {
	v, ok := s.GetInt(c.Key)
	return ok && v > c.Value
}

// IntLessThan holds when the int fact at Key is strictly less than Value.
type IntLessThan struct {
	Key   string
	Value int64
}

func (IntLessThan) condition() {}

// Evaluate implements Condition. Absent key evaluates false.
func (c IntLessThan) Evaluate(s *fact.Store) bool {
	v, ok := s.GetInt(c.Key)
	return ok && v < c.Value
}

// BoolEquals holds when the bool fact at Key equals Value.
type BoolEquals struct {
	Key   string
	Value bool
}

func (BoolEquals) condition() {}

// Evaluate implements Condition. Absent key evaluates false.
func (c BoolEquals) Evaluate(s *fact.Store) bool {
	v, ok := s.GetBool(c.Key)
	return ok && v == c.Value
}

// SetContains holds when the string-set fact at Key contains Member.
type SetContains struct {
	Key    string
	Member string
}

func (SetContains) condition() {}

// Evaluate implements Condition. False when the set is absent or does not
// contain the member.
func (c SetContains) Evaluate(s *fact.Store) bool {
	members, ok := s.GetSet(c.Key)
	if !ok {
		return false
	}
	for _, m := range members {
		if m == c.Member {
			return true
		}
	}
	return false
}

// Not negates its owned inner condition.
//
// Negation interacts with absence: the un-negated condition over an absent
// fact is false, so Not over an absent fact is TRUE. This asymmetry is part
// of the contract, not an accident.
type Not struct {
	Inner Condition
}

func (Not) condition() {}

// Evaluate implements Condition by recursively flipping the inner result.
func (c Not) Evaluate(s *fact.Store) bool {
	return !c.Inner.Evaluate(s)
}

// String renders a condition for diagnostics and CLI output.
func String(c Condition) string {
	switch v := c.(type) {
	case StringEquals:
		return fmt.Sprintf("%s == %q", v.Key, v.Value)
	case IntEquals:
		return fmt.Sprintf("%s == %d", v.Key, v.Value)
	case IntGreaterThan:
		return fmt.Sprintf("%s > %d", v.Key, v.Value)
	case IntLessThan:
		return fmt.Sprintf("%s < %d", v.Key, v.Value)
	case BoolEquals:
		return fmt.Sprintf("%s == %t", v.Key, v.Value)
	case SetContains:
		return fmt.Sprintf("%s contains %q", v.Key, v.Member)
	case Not:
		return fmt.Sprintf("not(%s)", String(v.Inner))
	default:
		return fmt.Sprintf("%T", c)
	}
}
