package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/factoid/internal/fact"
)

// snapshot converts a result to a map for canonical JSON serialization.
// Canonical form (sorted keys, NFC strings, no floats) keeps golden files
// byte-stable across runs and platforms.
func snapshot(name string, r *Result) (map[string]any, error) {
	trace := make([]any, len(r.Trace))
	for i, ev := range r.Trace {
		trace[i] = map[string]any{
			"tick":  ev.Tick,
			"kind":  ev.Kind,
			"key":   ev.Key,
			"value": ev.Value,
		}
	}

	snap := map[string]any{
		"scenario_name": name,
		"trace":         trace,
	}

	if len(r.Evals) > 0 {
		evals := make([]any, len(r.Evals))
		for i, ev := range r.Evals {
			evals[i] = map[string]any{
				"tick": ev.Tick,
				"rule": ev.Rule,
				"got":  ev.Got,
			}
		}
		snap["evals"] = evals
	}

	return snap, nil
}

// RunWithGolden executes a scenario and compares its canonical trace
// snapshot against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenarioPath string) *Result {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	result, err := Run(s)
	if err != nil {
		t.Fatalf("run scenario %s: %v", s.Name, err)
	}

	snap, err := snapshot(s.Name, result)
	if err != nil {
		t.Fatalf("snapshot scenario %s: %v", s.Name, err)
	}
	data, err := fact.MarshalCanonical(snap)
	if err != nil {
		t.Fatalf("marshal snapshot %s: %v", s.Name, err)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, s.Name, data)

	return result
}
