package harness

import (
	"fmt"

	"github.com/roach88/factoid/internal/fact"
)

// checkAssertion validates one assertion against the final store and trace.
// A failed check marks the result failed; a malformed assertion is an error.
func checkAssertion(store *fact.Store, result *Result, a Assertion) error {
	switch a.Type {
	case "fact_equals":
		return checkFactEquals(store, result, a)

	case "fact_absent":
		kind, err := fact.ParseKind(a.Kind)
		if err != nil {
			return err
		}
		if _, ok := store.Get(kind, a.Key); ok {
			result.AddError("fact_absent: %s/%s exists", a.Kind, a.Key)
		}
		return nil

	case "trace_count":
		if len(result.Trace) != a.Count {
			result.AddError("trace_count: got %d notifications, expected %d",
				len(result.Trace), a.Count)
		}
		return nil

	case "trace_contains":
		for _, ev := range result.Trace {
			if ev.Kind == a.Kind && ev.Key == a.Key {
				return nil
			}
		}
		result.AddError("trace_contains: no notification for %s/%s", a.Kind, a.Key)
		return nil

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func checkFactEquals(store *fact.Store, result *Result, a Assertion) error {
	kind, err := fact.ParseKind(a.Kind)
	if err != nil {
		return err
	}

	got, ok := store.Get(kind, a.Key)
	if !ok {
		result.AddError("fact_equals: %s/%s is absent", a.Kind, a.Key)
		return nil
	}

	var want fact.Value
	switch kind {
	case fact.KindInt:
		want = fact.Int(a.Int)
	case fact.KindString:
		want = fact.String(a.Str)
	case fact.KindBool:
		want = fact.Bool(a.Bool)
	case fact.KindSet:
		want = fact.NewSet(a.Set...)
	}

	if !fact.Equal(want, got) {
		result.AddError("fact_equals: %s/%s is %s, expected %s",
			a.Kind, a.Key, fact.Format(got), fact.Format(want))
	}
	return nil
}
