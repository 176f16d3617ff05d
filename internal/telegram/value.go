package telegram

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// Value kinds. String is the zero kind, so the zero Value is an empty string.
const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDateTime
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindDateTime:
		return "datetime"
	default:
		return "string"
	}
}

// Value is a decoded scalar from a telegram: exactly one of boolean,
// integer, float, date-time or string.
//
// Values are immutable and safe to copy.
type Value struct {
	kind Kind
	raw  string

	b bool
	i int64
	f float64
	t time.Time
}

// StringValue returns a String value.
func StringValue(s string) Value {
	return Value{kind: KindString, raw: s}
}

// BoolValue returns a Boolean value.
func BoolValue(b bool) Value {
	raw := "off"
	if b {
		raw = "on"
	}
	return Value{kind: KindBool, raw: raw, b: b}
}

// IntValue returns an Integer value.
func IntValue(i int64) Value {
	return Value{kind: KindInt, raw: strconv.FormatInt(i, 10), i: i}
}

// FloatValue returns a Float value.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, raw: strconv.FormatFloat(f, 'g', -1, 64), f: f}
}

// DateTimeValue returns a DateTime value.
func DateTimeValue(t time.Time) Value {
	return Value{kind: KindDateTime, raw: t.Format(time.RFC3339Nano), t: t}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// Raw returns the trimmed source text the value was decoded from. Values
// built with the constructors return a canonical rendering instead.
func (v Value) Raw() string {
	return v.raw
}

// String implements fmt.Stringer and returns Raw.
func (v Value) String() string {
	return v.raw
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the integer held by v.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsFloat returns the float held by v. Integers are not converted; use
// AsNumber for that.
func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// AsNumber returns v as float64 when it is an Integer or a Float.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// AsTime returns the date-time held by v.
func (v Value) AsTime() (time.Time, bool) {
	return v.t, v.kind == KindDateTime
}

// AsString returns the text of a String value.
func (v Value) AsString() (string, bool) {
	return v.raw, v.kind == KindString
}

// Equal reports whether v and o hold the same variant and payload. The raw
// text is not compared.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindDateTime:
		return v.t.Equal(o.t)
	default:
		return v.raw == o.raw
	}
}

// MarshalJSON encodes v as the matching JSON scalar. Date-times are encoded
// as RFC 3339 strings, which Decode reads back as DateTime.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindDateTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	default:
		return json.Marshal(v.raw)
	}
}
