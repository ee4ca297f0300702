package fact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for golden-trace comparison and
// journaling. Output is byte-stable for equal inputs:
//
//  1. Object keys are sorted lexicographically.
//  2. Strings are NFC normalized.
//  3. No HTML escaping (< > & pass through).
//  4. Floats are rejected - fact values are int64, string, bool, set only.
//
// Accepts fact Values, Go primitives (string, int64, int, bool), []any,
// and map[string]any.
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case Int:
		return []byte(fmt.Sprintf("%d", int64(val))), nil
	case String:
		return canonicalString(string(val))
	case Bool:
		return canonicalBool(bool(val)), nil
	case Set:
		members := val.Members()
		arr := make([]any, len(members))
		for i, m := range members {
			arr[i] = m
		}
		return canonicalArray(arr)
	case Value:
		return nil, fmt.Errorf("unknown fact value type: %T", v)
	case string:
		return canonicalString(val)
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		return canonicalBool(val), nil
	case []any:
		return canonicalArray(val)
	case map[string]any:
		return canonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type in canonical JSON: %T", v)
	}
}

func canonicalBool(b bool) []byte {
	if b {
		return []byte("true")
	}
	return []byte("false")
}

// canonicalString NFC-normalizes then JSON-encodes without HTML escaping.
func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, fmt.Errorf("encode string: %w", err)
	}
	// Encoder appends a trailing newline
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func canonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func canonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := canonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("object key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')

		vb, err := MarshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("object value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
