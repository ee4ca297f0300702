// Package harness runs scripted scenarios against the fact store, bus,
// and compiled rules, for conformance testing and the run CLI command.
//
// # Scenario format
//
// Scenarios are YAML files:
//
//	name: button_counter
//	description: "Pressing accumulates; one notification per drain"
//	rules:
//	  - rules.cue
//	steps:
//	  - {op: set_int, key: button_pressed, int: 0}
//	  - {op: add_int, key: button_pressed, int: 1}
//	  - {op: flush}
//	  - {op: eval, rule: pressed, expect: true}
//	assertions:
//	  - {type: fact_equals, kind: int, key: button_pressed, int: 1}
//	  - {type: trace_count, count: 1}
//
// # Determinism
//
// Scenarios execute with a deterministic logical clock and sequential
// subscription tokens, so identical scenarios produce identical traces.
// RunWithGolden serializes the trace as canonical JSON and compares it
// against a golden file via goldie.
package harness
