package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	KindNumber ValueKind = iota
	KindBool
)

// String returns the lower-case type name used in messages and JSON.
func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "(unknown)"
	}
}

// Value is the result of evaluating a formula: either a number or a boolean.
// The zero Value is the number 0.
type Value struct {
	kind ValueKind
	num  float64
	b    bool
}

// Number returns a numeric Value. Negative zero is stored as zero.
func Number(f float64) Value {
	if f == 0 {
		f = 0
	}
	return Value{kind: KindNumber, num: f}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Kind returns the runtime type of v.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}

// IsBool reports whether v holds a boolean.
func (v Value) IsBool() bool {
	return v.kind == KindBool
}

// Float returns the numeric payload. It is 0 for boolean values.
func (v Value) Float() float64 {
	return v.num
}

// Truth returns the boolean payload. It is false for numeric values.
func (v Value) Truth() bool {
	return v.b
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindBool {
		return v.b == o.b
	}
	return v.num == o.num
}

// String returns the printed form of the value: the shortest decimal
// representation for numbers, "true" or "false" for booleans.
func (v Value) String() string {
	if v.kind == KindBool {
		return strconv.FormatBool(v.b)
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

// GoString implements fmt.GoStringer.
func (v Value) GoString() string {
	return fmt.Sprintf("types.Value{%s: %s}", v.kind, v)
}

type jsonValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"type": "number", "value": 20}.
func (v Value) MarshalJSON() ([]byte, error) {
	var raw []byte
	if v.kind == KindBool {
		raw = []byte(strconv.FormatBool(v.b))
	} else {
		raw = []byte(strconv.FormatFloat(v.num, 'g', -1, 64))
	}
	return json.Marshal(jsonValue{Type: v.kind.String(), Value: raw})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.Type {
	case "number":
		var f float64
		if err := json.Unmarshal(jv.Value, &f); err != nil {
			return err
		}
		*v = Number(f)
	case "boolean":
		var b bool
		if err := json.Unmarshal(jv.Value, &b); err != nil {
			return err
		}
		*v = Bool(b)
	default:
		return fmt.Errorf("unknown value type %q", jv.Type)
	}
	return nil
}

// Bindings maps variable names to numeric values for one evaluation.
// Names are case-sensitive. The engine only reads from Bindings.
type Bindings map[string]float64

// Lookup returns the value bound to name.
func (b Bindings) Lookup(name string) (float64, bool) {
	f, ok := b[name]
	return f, ok
}
