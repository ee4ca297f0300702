package fact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "int", KindInt.String())
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "bool", KindBool.String())
	assert.Equal(t, "set", KindSet.String())
}

func TestParseKind_RoundTrip(t *testing.T) {
	for _, k := range Kinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("float")
	assert.Error(t, err, "floats are not a fact kind")
}

func TestSet_Members_Sorted(t *testing.T) {
	s := NewSet("c", "a", "b", "a")
	assert.Equal(t, 3, s.Len(), "duplicates collapse")
	assert.Equal(t, []string{"a", "b", "c"}, s.Members())
	assert.True(t, s.Contains("b"))
	assert.False(t, s.Contains("z"))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal ints", Int(5), Int(5), true},
		{"different ints", Int(5), Int(6), false},
		{"equal strings", String("x"), String("x"), true},
		{"equal bools", Bool(true), Bool(true), true},
		{"cross-kind never equal", Int(1), Bool(true), false},
		{"equal sets", NewSet("a", "b"), NewSet("b", "a"), true},
		{"different sets", NewSet("a"), NewSet("a", "b"), false},
		{"empty sets", NewSet(), NewSet(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestMarshalValue_Tagged(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"int", Int(42), `{"kind":"int","int":42}`},
		{"string", String("hi"), `{"kind":"string","string":"hi"}`},
		{"bool", Bool(false), `{"kind":"bool","bool":false}`},
		{"set sorted", NewSet("b", "a"), `{"kind":"set","set":["a","b"]}`},
		{"empty set keeps payload", NewSet(), `{"kind":"set","set":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := MarshalValue(tt.v)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))

			back, err := UnmarshalValue(b)
			require.NoError(t, err)
			assert.True(t, Equal(tt.v, back), "round-trip should preserve value")
		})
	}
}

func TestUnmarshalValue_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unknown kind", `{"kind":"float","int":1}`},
		{"missing int payload", `{"kind":"int"}`},
		{"missing string payload", `{"kind":"string"}`},
		{"missing bool payload", `{"kind":"bool"}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalValue([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "7", Format(Int(7)))
	assert.Equal(t, `"a"`, Format(String("a")))
	assert.Equal(t, "true", Format(Bool(true)))
	assert.Equal(t, "{a, b}", Format(NewSet("b", "a")))
}
