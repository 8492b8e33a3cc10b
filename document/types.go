package document

import (
	"strconv"
	"strings"
	"unique"

	gojson "github.com/goccy/go-json"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

// Value kinds. The zero Kind marks an unset Value.
const (
	KindInvalid Kind = iota
	KindNull
	KindInt
	KindFloat
	KindString
	KindBool
	KindArray
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindNull:    "null",
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindBool:    "bool",
	KindArray:   "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindInvalid]
}

// Value is a typed field of a percolated document or of query metadata.
// Strings are interned, so term comparison is a handle comparison.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	B    bool
	A    []Value

	s unique.Handle[string]
}

// wireValue is the snapshot encoding of a Value. Keep the field names stable.
type wireValue struct {
	Kind Kind    `json:"k"`
	I64  int64   `json:"i,omitempty"`
	F64  float64 `json:"f,omitempty"`
	S    string  `json:"s,omitempty"`
	B    bool    `json:"b,omitempty"`
	A    []Value `json:"a,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: v.Kind, I64: v.I64, F64: v.F64, B: v.B, A: v.A}
	if v.Kind == KindString {
		w.S = v.s.Value()
	}
	return gojson.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := gojson.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = Value{Kind: w.Kind, I64: w.I64, F64: w.F64, B: w.B, A: w.A}
	if w.Kind == KindString {
		v.s = unique.Make(w.S)
	}
	return nil
}

// String renders the value for facet terms and logs.
func (v Value) String() string {
	var b strings.Builder
	v.appendTo(&b)
	return b.String()
}

func (v Value) appendTo(b *strings.Builder) {
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindInt:
		b.WriteString(strconv.FormatInt(v.I64, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.F64, 'g', -1, 64))
	case KindString:
		b.WriteString(v.s.Value())
	case KindBool:
		b.WriteString(strconv.FormatBool(v.B))
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.A {
			if i > 0 {
				b.WriteByte(' ')
			}
			e.appendTo(b)
		}
		b.WriteByte(']')
	}
}

// AsFloat64 returns the numeric value of an int or float.
func (v Value) AsFloat64() (float64, bool) {
	if !isNumber(v) {
		return 0, false
	}
	return asFloat64(v), true
}

// AsString returns the string of a KindString value.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsBool returns the boolean of a KindBool value.
func (v Value) AsBool() (bool, bool) {
	return v.B, v.Kind == KindBool
}

// Elements returns the array elements, or the value itself as a single element.
// Multi-valued fields are matched element-wise.
func (v Value) Elements() []Value {
	switch v.Kind {
	case KindArray:
		return v.A
	case KindInvalid:
		return nil
	default:
		return []Value{v}
	}
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an integer Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a floating point Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns an interned string Value.
func String(v string) Value { return Value{Kind: KindString, s: unique.Make(v)} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Array returns a multi-valued Value.
func Array(v []Value) Value { return Value{Kind: KindArray, A: v} }

// Strings returns a multi-valued Value of strings.
func Strings(v ...string) Value {
	arr := make([]Value, len(v))
	for i, s := range v {
		arr[i] = String(s)
	}
	return Array(arr)
}

// Document maps field names to values.
type Document map[string]Value

// Clone returns a deep copy of d. Registered query metadata is cloned on entry
// so callers can keep mutating their own maps.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for field, v := range d {
		out[field] = v.clone()
	}
	return out
}

func (v Value) clone() Value {
	if v.Kind != KindArray || v.A == nil {
		return v
	}
	elems := make([]Value, len(v.A))
	for i, e := range v.A {
		elems[i] = e.clone()
	}
	v.A = elems
	return v
}
