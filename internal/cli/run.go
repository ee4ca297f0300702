package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/factoid/internal/engine"
	"github.com/roach88/factoid/internal/fact"
	"github.com/roach88/factoid/internal/harness"
	"github.com/roach88/factoid/internal/journal"
	"github.com/roach88/factoid/internal/notify"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string // path to SQLite journal (optional)

	// Tokens overrides the subscription token generator (for testing).
	// Defaults to UUIDv7Generator.
	Tokens notify.TokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario-file>",
		Short: "Run a scenario through the engine loop",
		Long: `Drive a scenario's write and flush steps through the single-writer
engine loop, logging each delivered notification.

Unlike the test command, which applies steps directly, run enqueues
every op and lets the engine's run loop process them in FIFO order.
With --journal, each flushed batch is recorded to a SQLite journal
readable by the trace command. Eval steps are evaluated against the
final store once the queue drains.

Examples:
  factoid run ./scenarios/button.yaml
  factoid run ./scenarios/button.yaml --journal ./factoid.db
  factoid run ./scenarios/button.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioEngine(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite journal (created if absent)")

	return cmd
}

func runScenarioEngine(opts *RunOptions, scenarioPath string, cmd *cobra.Command) error {
	s, err := harness.LoadScenario(scenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	rules, err := harness.LoadScenarioRules(s)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile rules", err)
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = notify.UUIDv7Generator{}
	}

	store := fact.NewStore()
	bus := notify.NewBus(tokens)
	bus.Subscribe(func(n notify.Notification) {
		slog.Info("notification",
			"kind", n.Kind.String(),
			"key", n.Key,
			"value", fact.Format(n.Value),
		)
	})

	var engOpts []engine.Option
	if opts.Journal != "" {
		slog.Info("opening journal", "path", opts.Journal)
		j, err := journal.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		engOpts = append(engOpts, engine.WithSink(j))
	}

	eng := engine.New(store, bus, engOpts...)

	// Enqueue the full script, then close the queue so Run returns once
	// every op has been applied.
	var evals []harness.Step
	for _, step := range s.Steps {
		if step.Op == "eval" {
			evals = append(evals, step)
			continue
		}
		if step.Op == "flush" {
			eng.Enqueue(engine.Op{Type: engine.OpFlush})
			continue
		}
		eng.Enqueue(harness.StepToOp(step))
	}
	eng.Stop()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("engine starting", "scenario", s.Name, "steps", len(s.Steps))
	if err := eng.Run(ctx); err != nil && err != context.Canceled {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	// Eval steps run against the drained store.
	failed := 0
	for _, step := range evals {
		r, ok := rules[step.Rule]
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown rule %q", step.Rule))
		}
		got := r.Evaluate(eng.Store())
		mark := "✓"
		if got != step.Expect {
			mark = "✗"
			failed++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %t\n", mark, step.Rule, got)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d rule evaluation(s) failed", failed))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scenario %s complete (tick %d)\n", s.Name, eng.Clock().Current())
	return nil
}
