package harness

import (
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/factoid/internal/compiler"
	"github.com/roach88/factoid/internal/engine"
	"github.com/roach88/factoid/internal/fact"
	"github.com/roach88/factoid/internal/notify"
	"github.com/roach88/factoid/internal/rule"
	"github.com/roach88/factoid/internal/testutil"
)

// TraceEvent is one notification in the scenario trace, stamped with the
// logical tick of the flush that delivered it.
type TraceEvent struct {
	Tick  int64      `json:"tick"`
	Kind  string     `json:"kind"`
	Key   string     `json:"key"`
	Value fact.Value `json:"value"`
}

// EvalEvent records one mid-scenario rule evaluation.
type EvalEvent struct {
	Tick int64  `json:"tick"` // tick current at evaluation time
	Rule string `json:"rule"`
	Got  bool   `json:"got"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	Pass   bool
	Trace  []TraceEvent
	Evals  []EvalEvent
	Errors []string
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario against a fresh store and bus.
//
// Execution is fully deterministic: a resettable logical clock numbers the
// flushes, subscription tokens come from a sequential generator, and the
// bus's ordering guarantees (kind order, sorted keys, registration order)
// do the rest. The same scenario always produces the same trace.
func Run(s *Scenario) (*Result, error) {
	rules, err := LoadScenarioRules(s)
	if err != nil {
		return nil, err
	}

	store := fact.NewStore()
	bus := notify.NewBus(&notify.SequentialGenerator{})
	clock := testutil.NewDeterministicClock()
	result := &Result{Pass: true}

	// The recorder is the scenario's only subscriber; tick is captured by
	// closure since flushes are synchronous.
	var tick int64
	bus.Subscribe(func(n notify.Notification) {
		result.Trace = append(result.Trace, TraceEvent{
			Tick:  tick,
			Kind:  n.Kind.String(),
			Key:   n.Key,
			Value: n.Value,
		})
	})

	for i, step := range s.Steps {
		switch step.Op {
		case "flush":
			tick = clock.Next()
			bus.Flush(store)

		case "eval":
			r, ok := rules[step.Rule]
			if !ok {
				return nil, fmt.Errorf("step %d: unknown rule %q", i, step.Rule)
			}
			got := r.Evaluate(store)
			result.Evals = append(result.Evals, EvalEvent{
				Tick: clock.Current(),
				Rule: step.Rule,
				Got:  got,
			})
			if got != step.Expect {
				result.AddError("step %d: rule %q evaluated %t, expected %t",
					i, step.Rule, got, step.Expect)
			}

		default:
			engine.Apply(store, StepToOp(step))
		}
	}

	for i, a := range s.Assertions {
		if err := checkAssertion(store, result, a); err != nil {
			return nil, fmt.Errorf("assertion %d: %w", i, err)
		}
	}

	return result, nil
}

// LoadScenarioRules compiles every rule file named by the scenario into
// one name-keyed map. Later files may not redefine earlier names.
func LoadScenarioRules(s *Scenario) (map[string]rule.Rule, error) {
	rules := make(map[string]rule.Rule)
	ctx := cuecontext.New()

	for _, p := range s.Rules {
		path := s.rulePath(p)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rule file: %w", err)
		}
		v := ctx.CompileBytes(data)
		named, err := compiler.CompileRules(v)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", path, err)
		}
		for _, n := range named {
			if _, dup := rules[n.Name]; dup {
				return nil, fmt.Errorf("compile %s: duplicate rule %q", path, n.Name)
			}
			rules[n.Name] = n.Rule
		}
	}
	return rules, nil
}

// StepToOp converts a validated write step to an engine op.
func StepToOp(s Step) engine.Op {
	op := engine.Op{Key: s.Key, Int: s.Int, Str: s.Str, Bool: s.Bool, Member: s.Member}
	switch s.Op {
	case "set_int":
		op.Type = engine.OpSetInt
	case "add_int":
		op.Type = engine.OpAddInt
	case "sub_int":
		op.Type = engine.OpSubInt
	case "set_string":
		op.Type = engine.OpSetString
	case "set_bool":
		op.Type = engine.OpSetBool
	case "add_to_set":
		op.Type = engine.OpAddToSet
	case "remove_from_set":
		op.Type = engine.OpRemoveFromSet
	}
	return op
}
