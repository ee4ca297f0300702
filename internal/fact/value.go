package fact

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies one of the four fact namespaces.
// Each kind has its own key space - the same key string may hold an int
// fact and a string fact simultaneously without collision.
type Kind int

const (
	// KindInt is the int64 fact namespace.
	KindInt Kind = iota + 1
	// KindString is the string fact namespace.
	KindString
	// KindBool is the bool fact namespace.
	KindBool
	// KindSet is the string-set fact namespace.
	KindSet
)

// Kinds lists all fact kinds in drain/notification order.
// This order is fixed: int, string, bool, set.
var Kinds = []Kind{KindInt, KindString, KindBool, KindSet}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindSet:
		return "set"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a kind name back to a Kind.
// Accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "int":
		return KindInt, nil
	case "string":
		return KindString, nil
	case "bool":
		return KindBool, nil
	case "set":
		return KindSet, nil
	default:
		return 0, fmt.Errorf("unknown fact kind %q", s)
	}
}

// Value is a sealed interface over the four fact value types.
// Only Int, String, Bool, and Set implement it.
type Value interface {
	// Kind reports which namespace the value belongs to.
	Kind() Kind

	factValue() // Sealed - only these types implement it
}

// Int is an integer fact value. Always int64, never float.
type Int int64

func (Int) factValue() {}

// Kind returns KindInt.
func (Int) Kind() Kind { return KindInt }

// String is a string fact value.
type String string

func (String) factValue() {}

// Kind returns KindString.
func (String) Kind() Kind { return KindString }

// Bool is a boolean fact value.
type Bool bool

func (Bool) factValue() {}

// Kind returns KindBool.
func (Bool) Kind() Kind { return KindBool }

// Set is a string-set fact value: unordered, unique members.
// The zero value is an empty set ready for use via NewSet.
type Set struct {
	members map[string]struct{}
}

func (Set) factValue() {}

// Kind returns KindSet.
func (Set) Kind() Kind { return KindSet }

// NewSet builds a set from the given members. Duplicates collapse.
func NewSet(members ...string) Set {
	s := Set{members: make(map[string]struct{}, len(members))}
	for _, m := range members {
		s.members[m] = struct{}{}
	}
	return s
}

// Contains reports whether member is in the set.
func (s Set) Contains(member string) bool {
	_, ok := s.members[member]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s.members)
}

// Members returns the members sorted lexicographically.
// The result is a copy - mutating it does not affect the set.
func (s Set) Members() []string {
	out := make([]string, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON implements json.Marshaler. Members are emitted as a sorted
// JSON array for deterministic output.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Members())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Set) UnmarshalJSON(data []byte) error {
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	*s = NewSet(members...)
	return nil
}

// Equal reports whether two values are value-equal.
// Values of different kinds are never equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Int:
		return av == b.(Int)
	case String:
		return av == b.(String)
	case Bool:
		return av == b.(Bool)
	case Set:
		bv := b.(Set)
		if len(av.members) != len(bv.members) {
			return false
		}
		for m := range av.members {
			if _, ok := bv.members[m]; !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Format renders a value for human-readable output.
// Sets render as {a, b, c} with sorted members.
func Format(v Value) string {
	switch val := v.(type) {
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case String:
		return fmt.Sprintf("%q", string(val))
	case Bool:
		return fmt.Sprintf("%t", bool(val))
	case Set:
		return "{" + strings.Join(val.Members(), ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// taggedValue is the JSON wire form for a Value: a kind tag plus exactly
// one payload field matching that kind.
type taggedValue struct {
	Kind   string   `json:"kind"`
	Int    *int64   `json:"int,omitempty"`
	String *string  `json:"string,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
	Set    []string `json:"set,omitempty"`
}

// MarshalValue serializes a Value in tagged form, e.g.
// {"kind":"int","int":42} or {"kind":"set","set":["a","b"]}.
func MarshalValue(v Value) ([]byte, error) {
	tv := taggedValue{Kind: v.Kind().String()}
	switch val := v.(type) {
	case Int:
		n := int64(val)
		tv.Int = &n
	case String:
		s := string(val)
		tv.String = &s
	case Bool:
		b := bool(val)
		tv.Bool = &b
	case Set:
		// Sorted for deterministic output; empty sets still need a
		// non-nil slice so the tag survives omitempty.
		members := val.Members()
		if members == nil {
			members = []string{}
		}
		tv.Set = members
		return json.Marshal(struct {
			Kind string   `json:"kind"`
			Set  []string `json:"set"`
		}{tv.Kind, tv.Set})
	default:
		return nil, fmt.Errorf("unknown fact value type: %T", v)
	}
	return json.Marshal(tv)
}

// UnmarshalValue parses the tagged form produced by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	var tv struct {
		Kind   string   `json:"kind"`
		Int    *int64   `json:"int"`
		String *string  `json:"string"`
		Bool   *bool    `json:"bool"`
		Set    []string `json:"set"`
	}
	if err := json.Unmarshal(data, &tv); err != nil {
		return nil, err
	}
	kind, err := ParseKind(tv.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindInt:
		if tv.Int == nil {
			return nil, fmt.Errorf("int value missing %q field", "int")
		}
		return Int(*tv.Int), nil
	case KindString:
		if tv.String == nil {
			return nil, fmt.Errorf("string value missing %q field", "string")
		}
		return String(*tv.String), nil
	case KindBool:
		if tv.Bool == nil {
			return nil, fmt.Errorf("bool value missing %q field", "bool")
		}
		return Bool(*tv.Bool), nil
	case KindSet:
		return NewSet(tv.Set...), nil
	default:
		return nil, fmt.Errorf("unknown fact kind %q", tv.Kind)
	}
}
