package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/factoid/internal/fact"
	"github.com/roach88/factoid/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Journal string
	Kind    string // optional - filter to one kind
	Key     string // optional - filter to one key
}

// JournalEvent is one journaled notification in trace output.
type JournalEvent struct {
	Tick  int64  `json:"tick"`
	Seq   int64  `json:"seq"`
	Kind  string `json:"kind"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// JournalTrace holds the complete trace output.
type JournalTrace struct {
	Events []JournalEvent `json:"events"`
	Ticks  int64          `json:"ticks"` // highest tick seen
	Total  int            `json:"total"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Read a notification journal",
		Long: `Read the notification trace recorded by a run with --journal.

Events print in delivery order: by tick, then by in-batch sequence.
Each line shows the flush tick, the fact's kind and key, and the value
the fact held when the batch was delivered.

Examples:
  factoid trace --journal ./factoid.db
  factoid trace --journal ./factoid.db --kind int
  factoid trace --journal ./factoid.db --key button_pressed --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one kind (int|string|bool|set)")
	cmd.Flags().StringVar(&opts.Key, "key", "", "filter to one key")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	if opts.Kind != "" {
		if _, err := fact.ParseKind(opts.Kind); err != nil {
			return WrapExitError(ExitCommandError, "bad kind filter", err)
		}
	}
	if _, err := os.Stat(opts.Journal); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", opts.Journal))
	}

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := j.ReadTrace(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	trace := JournalTrace{Events: []JournalEvent{}}
	for _, e := range entries {
		if opts.Kind != "" && e.Kind.String() != opts.Kind {
			continue
		}
		if opts.Key != "" && e.Key != opts.Key {
			continue
		}
		trace.Events = append(trace.Events, JournalEvent{
			Tick:  e.Tick,
			Seq:   e.Seq,
			Kind:  e.Kind.String(),
			Key:   e.Key,
			Value: fact.Format(e.Value),
		})
		if e.Tick > trace.Ticks {
			trace.Ticks = e.Tick
		}
	}
	trace.Total = len(trace.Events)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Format == "json" {
		return formatter.Success(trace)
	}

	if trace.Total == 0 {
		fmt.Fprintln(formatter.Writer, "No notifications recorded.")
		return nil
	}

	lastTick := int64(-1)
	for _, ev := range trace.Events {
		if ev.Tick != lastTick {
			fmt.Fprintf(formatter.Writer, "tick %d\n", ev.Tick)
			lastTick = ev.Tick
		}
		fmt.Fprintf(formatter.Writer, "  [%d] %s/%s = %s\n", ev.Seq, ev.Kind, ev.Key, ev.Value)
	}
	fmt.Fprintf(formatter.Writer, "\n%d notification(s) across %d tick(s)\n", trace.Total, trace.Ticks)
	return nil
}
