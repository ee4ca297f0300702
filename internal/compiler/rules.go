package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/factoid/internal/rule"
)

// Valid condition operators in rule files.
var validOps = map[string]bool{
	"eq":       true,
	"gt":       true,
	"lt":       true,
	"contains": true,
}

// CompileRule parses one CUE rule struct into a rule.Rule.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the rule struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`rules: adult: {all: [...]}`)
//	r, err := CompileRule(v.LookupPath(cue.ParsePath("rules.adult")))
func CompileRule(v cue.Value) (*rule.Rule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	allVal := v.LookupPath(cue.ParsePath("all"))
	if !allVal.Exists() {
		return nil, &CompileError{
			Field:   "all",
			Message: "rule must declare an \"all\" condition list",
			Pos:     v.Pos(),
		}
	}

	iter, err := allVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "all",
			Message: fmt.Sprintf("\"all\" must be a list: %v", err),
			Pos:     allVal.Pos(),
		}
	}

	r := &rule.Rule{}
	for iter.Next() {
		cond, err := compileCondition(iter.Value())
		if err != nil {
			return nil, err
		}
		r.Conditions = append(r.Conditions, cond)
	}

	if len(r.Conditions) == 0 {
		return nil, &CompileError{
			Field:   "all",
			Message: "condition list must not be empty",
			Pos:     allVal.Pos(),
		}
	}

	return r, nil
}

// compileCondition parses one condition struct.
//
// A condition names a fact, an operator, exactly one literal field matching
// the operator's kind, and an optional negation:
//
//	{fact: "age", op: "gt", int: 17}
//	{fact: "banned", op: "contains", string: "alice", not: true}
func compileCondition(v cue.Value) (rule.Condition, error) {
	factKey, err := requireString(v, "fact")
	if err != nil {
		return nil, err
	}

	op, err := requireString(v, "op")
	if err != nil {
		return nil, err
	}
	if !validOps[op] {
		return nil, &CompileError{
			Field:   "op",
			Message: fmt.Sprintf("unknown operator %q, must be eq, gt, lt, or contains", op),
			Pos:     v.Pos(),
		}
	}

	intVal, hasInt, err := lookupInt(v, "int")
	if err != nil {
		return nil, err
	}
	strVal, hasStr, err := lookupString(v, "string")
	if err != nil {
		return nil, err
	}
	boolVal, hasBool, err := lookupBool(v, "bool")
	if err != nil {
		return nil, err
	}

	literals := 0
	for _, has := range []bool{hasInt, hasStr, hasBool} {
		if has {
			literals++
		}
	}
	if literals != 1 {
		return nil, &CompileError{
			Field:   "condition",
			Message: fmt.Sprintf("condition needs exactly one literal field (int, string, or bool), got %d", literals),
			Pos:     v.Pos(),
		}
	}

	var cond rule.Condition
	switch op {
	case "eq":
		switch {
		case hasInt:
			cond = rule.IntEquals{Key: factKey, Value: intVal}
		case hasStr:
			cond = rule.StringEquals{Key: factKey, Value: strVal}
		case hasBool:
			cond = rule.BoolEquals{Key: factKey, Value: boolVal}
		}

	case "gt", "lt":
		if !hasInt {
			return nil, &CompileError{
				Field:   "op",
				Message: fmt.Sprintf("operator %q requires an int literal", op),
				Pos:     v.Pos(),
			}
		}
		if op == "gt" {
			cond = rule.IntGreaterThan{Key: factKey, Value: intVal}
		} else {
			cond = rule.IntLessThan{Key: factKey, Value: intVal}
		}

	case "contains":
		if !hasStr {
			return nil, &CompileError{
				Field:   "op",
				Message: "operator \"contains\" requires a string literal (the set member)",
				Pos:     v.Pos(),
			}
		}
		cond = rule.SetContains{Key: factKey, Member: strVal}
	}

	negated, hasNot, err := lookupBool(v, "not")
	if err != nil {
		return nil, err
	}
	if hasNot && negated {
		cond = rule.Not{Inner: cond}
	}

	return cond, nil
}

// CompileRules extracts every rule under the "rules" struct of a CUE value,
// in CUE field order. Duplicate names cannot occur (CUE unifies them), but
// each rule must compile; the first failure aborts with a positioned error.
func CompileRules(v cue.Value) ([]rule.Named, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rules",
			Message: "no \"rules\" struct found",
			Pos:     v.Pos(),
		}
	}

	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []rule.Named
	for iter.Next() {
		name := iter.Selector().Unquoted()
		r, err := CompileRule(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		out = append(out, rule.Named{Name: name, Rule: *r})
	}

	if len(out) == 0 {
		return nil, &CompileError{
			Field:   "rules",
			Message: "\"rules\" struct is empty",
			Pos:     rulesVal.Pos(),
		}
	}

	return out, nil
}

// requireString reads a required string field.
func requireString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// lookupString reads an optional string field.
func lookupString(v cue.Value, field string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

// lookupInt reads an optional int field. Floats fail here - fact literals
// are int64 only.
func lookupInt(v cue.Value, field string) (int64, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, false, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, false, formatCUEError(err)
	}
	return n, true, nil
}

// lookupBool reads an optional bool field.
func lookupBool(v cue.Value, field string) (bool, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, false, formatCUEError(err)
	}
	return b, true, nil
}

// CompileError is a compile failure with CUE position info.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	if cueErr, ok := err.(cueerrors.Error); ok {
		return &CompileError{
			Field:   "cue",
			Message: cueErr.Error(),
			Pos:     cueErr.Position(),
		}
	}
	return err
}
