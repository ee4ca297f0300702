package rule

import (
	"strings"

	"github.com/roach88/factoid/internal/fact"
)

// Rule is an ordered conjunction of conditions. A rule has no identity of
// its own and holds no reference into any store - it is built by calling
// code, evaluated against a store, and discarded.
type Rule struct {
	Conditions []Condition
}

// New builds a rule from conditions in the given order.
func New(conditions ...Condition) Rule {
	return Rule{Conditions: conditions}
}

// Evaluate reports whether every condition holds against the store.
// An empty rule is vacuously true. Evaluation is pure: it never mutates
// the store. Exits on the first false condition - conditions have no side
// effects, so early exit is unobservable.
func (r Rule) Evaluate(s *fact.Store) bool {
	for _, c := range r.Conditions {
		if !c.Evaluate(s) {
			return false
		}
	}
	return true
}

// String renders the rule as its conjoined conditions.
func (r Rule) String() string {
	if len(r.Conditions) == 0 {
		return "true"
	}
	parts := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		parts[i] = String(c)
	}
	return strings.Join(parts, " && ")
}

// Named pairs a rule with the name it was declared under.
// Produced by the compiler from CUE rule files.
type Named struct {
	Name string
	Rule Rule
}
