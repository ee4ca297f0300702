// Package compiler turns CUE rule definitions into rule.Rule values.
//
// Rules are authored as a "rules" struct where each field is a named rule
// holding an "all" list of conditions:
//
//	rules: adult_student: {
//	    all: [
//	        {fact: "age", op: "gt", int: 17},
//	        {fact: "is_student", op: "eq", bool: true},
//	        {fact: "banned", op: "contains", string: "alice", not: true},
//	    ]
//	}
//
// Each condition names a fact, an operator (eq, gt, lt, contains), and
// exactly one literal field - int, string, or bool - whose presence picks
// the fact namespace the condition reads. An optional "not: true" wraps
// the condition in a negation.
//
// Compilation uses the CUE SDK's Go API directly and reports failures as
// CompileError values carrying file positions.
package compiler
