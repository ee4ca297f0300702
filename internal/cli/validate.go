package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/cobra"

	"github.com/roach88/factoid/internal/compiler"
)

// RuleError is one rule compilation failure, with position info when the
// underlying CUE error carries it.
type RuleError struct {
	File    string `json:"file"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds the outcome of validating a rules directory.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Rules  []string    `json:"rules,omitempty"`
	Errors []RuleError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Validate rule files without evaluation",
		Long: `Validate CUE rule files without evaluating them against any facts.

Checks syntax, condition shape (one operator, one literal per condition),
and operator/literal kind agreement. Reports every broken rule rather
than stopping at the first.

Exit codes:
  0 - All rules valid
  1 - One or more rules invalid
  2 - Command error (directory not found, no rule files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	files, err := compiler.FindCUEFiles(rulesDir)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to scan rules directory", err)
	}
	if len(files) == 0 {
		msg := fmt.Sprintf("no .cue files found in %s", rulesDir)
		_ = formatter.Error("E001", msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	formatter.VerboseLog("Found %d rule file(s) in %s", len(files), rulesDir)

	result := ValidationResult{Valid: true}
	ctx := cuecontext.New()

	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		data, err := os.ReadFile(file)
		if err != nil {
			result.Errors = append(result.Errors, RuleError{File: file, Message: err.Error()})
			continue
		}

		named, err := compiler.CompileRules(ctx.CompileBytes(data))
		if err != nil {
			result.Errors = append(result.Errors, toRuleError(file, err))
			continue
		}
		for _, n := range named {
			result.Rules = append(result.Rules, n.Name)
		}
	}

	if len(result.Errors) > 0 {
		result.Valid = false
		result.Rules = nil
		return outputValidationErrors(formatter, result)
	}

	return outputValidateSuccess(formatter, result)
}

// toRuleError converts a compile failure into a reportable rule error.
func toRuleError(file string, err error) RuleError {
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) {
		re := RuleError{File: file, Field: cErr.Field, Message: cErr.Message}
		if cErr.Pos.IsValid() {
			re.Line = cErr.Pos.Line()
		}
		return re
	}
	return RuleError{File: file, Message: err.Error()}
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d rule(s) valid\n", len(result.Rules))
	if formatter.Verbose {
		for _, name := range result.Rules {
			fmt.Fprintf(formatter.Writer, "  %s\n", name)
		}
	}
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    "E002",
				Message: result.Errors[0].Message,
			},
		}
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure,
			fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", e.File, e.Line)
		} else {
			fmt.Fprintln(formatter.Writer, e.File)
		}
		if e.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Field, e.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s\n\n", e.Message)
		}
	}

	return NewExitError(ExitFailure,
		fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
