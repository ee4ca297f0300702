// Package rule implements a boolean predicate evaluator over a fact store.
//
// A Rule is a flat conjunction of Conditions - there is no rule chaining
// or forward inference. Each Condition compares one named fact against a
// literal or tests set membership; Not recursively negates an owned child.
//
// Evaluation is a total pure function over (condition tree, store): no
// mutation, no errors, no retries. An absent fact makes a condition false,
// which means Not over an absent fact is true.
package rule
