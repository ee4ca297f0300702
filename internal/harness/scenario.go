package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted session against a fresh fact store.
//
// Scenarios validate the store, bus, and rules end to end: a sequence of
// write and flush steps drives the store, rule evaluations assert boolean
// outcomes mid-flight, and assertions validate the final facts and the
// notification trace.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Rules lists paths to CUE rule files, relative to the scenario file.
	Rules []string `yaml:"rules,omitempty"`

	// Steps is the scripted op sequence.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final facts and the notification trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// dir is the scenario file's directory, for resolving rule paths.
	dir string
}

// Step is one scripted operation.
//
// Write ops (set_int, add_int, sub_int, set_string, set_bool, add_to_set,
// remove_from_set) carry a key plus the literal matching their kind.
// "flush" drains the changed-sets into the trace. "eval" evaluates a named
// rule and fails the scenario when the result differs from Expect.
type Step struct {
	Op     string `yaml:"op"`
	Key    string `yaml:"key,omitempty"`
	Int    int64  `yaml:"int,omitempty"`
	Str    string `yaml:"string,omitempty"`
	Bool   bool   `yaml:"bool,omitempty"`
	Member string `yaml:"member,omitempty"`

	// Rule and Expect apply to eval steps only.
	Rule   string `yaml:"rule,omitempty"`
	Expect bool   `yaml:"expect,omitempty"`
}

// Assertion validates final state or the trace.
//
// Types:
//   - fact_equals: the fact at (kind, key) equals the matching literal
//   - fact_absent: no fact exists at (kind, key)
//   - trace_count: the trace holds exactly Count notifications
//   - trace_contains: some notification matches (kind, key)
type Assertion struct {
	Type string `yaml:"type"`

	Kind   string `yaml:"kind,omitempty"`
	Key    string `yaml:"key,omitempty"`
	Int    int64  `yaml:"int,omitempty"`
	Str    string `yaml:"string,omitempty"`
	Bool   bool   `yaml:"bool,omitempty"`
	Set    []string `yaml:"set,omitempty"`
	Count  int    `yaml:"count,omitempty"`
}

// LoadScenario reads and validates a scenario YAML file.
// Unknown fields are rejected to catch typos in step definitions.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: at least one step is required", path)
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return nil, fmt.Errorf("scenario %s: step %d: %w", path, i, err)
		}
	}

	s.dir = filepath.Dir(path)
	return &s, nil
}

// validOps lists the step op names and whether each needs a key.
var validOps = map[string]bool{
	"set_int":         true,
	"add_int":         true,
	"sub_int":         true,
	"set_string":      true,
	"set_bool":        true,
	"add_to_set":      true,
	"remove_from_set": true,
	"flush":           false,
	"eval":            false,
}

func validateStep(s Step) error {
	needsKey, ok := validOps[s.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", s.Op)
	}
	if needsKey && s.Key == "" {
		return fmt.Errorf("op %q requires a key", s.Op)
	}
	if s.Op == "eval" && s.Rule == "" {
		return fmt.Errorf("eval step requires a rule name")
	}
	return nil
}

// rulePath resolves a rule file path relative to the scenario file.
func (s *Scenario) rulePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.dir, p)
}
