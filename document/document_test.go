package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Value
	}{
		{"nil", nil, Null()},
		{"bool", true, Bool(true)},
		{"string", "hello", String("hello")},
		{"float64", 3.5, Float(3.5)},
		{"int", 7, Int(7)},
		{"uint32", uint32(9), Int(9)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := FromAny(tc.input)
			require.NoError(t, err)
			assert.True(t, Equal(tc.expected, v))
		})
	}

	t.Run("Nested", func(t *testing.T) {
		v, err := FromAny([]any{"a", 1, []any{true}})
		require.NoError(t, err)
		require.Equal(t, KindArray, v.Kind)
		require.Len(t, v.A, 3)
		assert.Equal(t, KindArray, v.A[2].Kind)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := FromAny(struct{}{})
		assert.Error(t, err)
	})
}

func TestFromMap(t *testing.T) {
	d, err := FromMap(map[string]any{"title": "fox", "year": 2024})
	require.NoError(t, err)

	title, ok := d["title"].AsString()
	require.True(t, ok)
	assert.Equal(t, "fox", title)

	_, err = FromMap(map[string]any{"bad": map[string]any{}})
	assert.ErrorContains(t, err, `field "bad"`)
}

func TestEqualAndCompare(t *testing.T) {
	assert.True(t, Equal(Int(2), Float(2)))
	assert.False(t, Equal(String("2"), Int(2)))
	assert.True(t, Equal(Strings("a", "b"), Strings("a", "b")))

	cmp, ok := Compare(Int(1), Float(1.5))
	require.True(t, ok)
	assert.Equal(t, -1, cmp)

	cmp, ok = Compare(String("b"), String("a"))
	require.True(t, ok)
	assert.Equal(t, 1, cmp)

	_, ok = Compare(Bool(true), Int(1))
	assert.False(t, ok)
}

func TestValueJSON(t *testing.T) {
	for _, v := range []Value{Null(), Int(123), String("hello"), Bool(true), Strings("x", "y")} {
		b, err := json.Marshal(v)
		require.NoError(t, err)

		var got Value
		require.NoError(t, json.Unmarshal(b, &got))
		assert.True(t, Equal(v, got), "round trip of %s", v.Kind)
	}

	b, err := json.Marshal(String("hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":4,"s":"hello"}`, string(b))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "[a 2 true null]", Array([]Value{String("a"), Int(2), Bool(true), Null()}).String())
	assert.Equal(t, "1.5", Float(1.5).String())
	assert.Empty(t, Value{}.String())
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "invalid", Kind(42).String())
}

func TestClone(t *testing.T) {
	orig := Document{"tags": Strings("a", "b")}
	clone := orig.Clone()
	clone["tags"].A[0] = String("z")

	first, _ := orig["tags"].A[0].AsString()
	assert.Equal(t, "a", first)
}

func TestElements(t *testing.T) {
	assert.Len(t, String("a").Elements(), 1)
	assert.Len(t, Strings("a", "b", "c").Elements(), 3)
	assert.Empty(t, Value{}.Elements())
}
