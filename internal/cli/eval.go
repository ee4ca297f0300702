package cli

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/factoid/internal/compiler"
	"github.com/roach88/factoid/internal/fact"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Rule string // optional - evaluate only this rule
}

// FactsFile is the YAML shape of a facts file: one section per kind.
type FactsFile struct {
	Ints    map[string]int64    `yaml:"ints,omitempty"`
	Strings map[string]string   `yaml:"strings,omitempty"`
	Bools   map[string]bool     `yaml:"bools,omitempty"`
	Sets    map[string][]string `yaml:"sets,omitempty"`
}

// RuleOutcome is the result of evaluating one rule.
type RuleOutcome struct {
	Rule string `json:"rule"`
	Pass bool   `json:"pass"`
}

// EvalResult holds the outcome of an eval run.
type EvalResult struct {
	Outcomes []RuleOutcome `json:"outcomes"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <rules-dir> <facts-file>",
		Short: "Evaluate rules against a facts file",
		Long: `Evaluate compiled rules against facts loaded from a YAML file.

The facts file lists facts per kind:

  ints:
    button_pressed: 3
  strings:
    status: active
  bools:
    is_student: true
  sets:
    seen: [alice, bob]

Every rule is evaluated against the loaded store and reported as pass
or fail. A rule over absent facts fails - absence is never a match.

Examples:
  factoid eval ./rules ./facts.yaml
  factoid eval ./rules ./facts.yaml --rule pressed_thrice
  factoid eval ./rules ./facts.yaml --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rule, "rule", "", "evaluate only the named rule")

	return cmd
}

func runEval(opts *EvalOptions, rulesDir, factsPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	rules, err := compiler.LoadDir(rulesDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile rules", err)
	}

	store, err := loadFacts(factsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load facts", err)
	}

	if opts.Rule != "" {
		selected := rules[:0:0]
		for _, n := range rules {
			if n.Name == opts.Rule {
				selected = append(selected, n)
			}
		}
		if len(selected) == 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown rule %q", opts.Rule))
		}
		rules = selected
	}

	// Sorted by name so text and JSON output are deterministic.
	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })

	result := EvalResult{Outcomes: make([]RuleOutcome, 0, len(rules))}
	for _, n := range rules {
		pass := n.Rule.Evaluate(store)
		formatter.VerboseLog("rule %s: %s", n.Name, n.Rule.String())
		result.Outcomes = append(result.Outcomes, RuleOutcome{Rule: n.Name, Pass: pass})
		if pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	for _, o := range result.Outcomes {
		mark := "✗"
		if o.Pass {
			mark = "✓"
		}
		fmt.Fprintf(formatter.Writer, "%s %s\n", mark, o.Rule)
	}
	fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed\n", result.Passed, result.Failed)
	return nil
}

// loadFacts reads a facts YAML file into a fresh store.
// Unknown top-level fields are rejected to catch kind-name typos.
func loadFacts(path string) (*fact.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}

	var f FactsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse facts %s: %w", path, err)
	}

	store := fact.NewStore()
	for k, v := range f.Ints {
		store.SetInt(k, v)
	}
	for k, v := range f.Strings {
		store.SetString(k, v)
	}
	for k, v := range f.Bools {
		store.SetBool(k, v)
	}
	for k, members := range f.Sets {
		for _, m := range members {
			store.AddToSet(k, m)
		}
	}
	return store, nil
}
