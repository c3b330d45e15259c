package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueKind discriminates the closed set of cell value variants.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

// Value is a small tagged union for a single database cell. Rows flowing
// through the module engine are map[string]Value rather than dynamic
// properties, so formatting and auditing can switch on the kind explicitly.
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Flt  float64
	Bool bool
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// String wraps a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int wraps an integer value.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float wraps a float value.
func Float(f float64) Value { return Value{Kind: KindFloat, Flt: f} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// ValueOf converts a database/sql scan result into a Value. Unknown driver
// types fall back to their fmt representation.
func ValueOf(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case []byte:
		return String(string(t))
	case int64:
		return Int(t)
	case int:
		return Int(int64(t))
	case float64:
		return Float(t)
	case bool:
		return Bool(t)
	case time.Time:
		return String(t.Format("2006-01-02 15:04:05"))
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Display renders the value as plain text. Null renders empty.
func (v Value) Display() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Flt, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "1"
		}
		return "0"
	}
	return ""
}

// Bind returns the value in the form expected by database/sql parameters.
func (v Value) Bind() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindString:
		return v.Str
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Flt
	case KindBool:
		return v.Bool
	}
	return nil
}

// Equal compares two values by kind and payload. A null never equals a
// non-null.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		// Displayed forms can still collide across kinds (42 vs "42");
		// audit dedup wants that treated as equal.
		if v.IsNull() || o.IsNull() {
			return false
		}
		return v.Display() == o.Display()
	}
	return v == o
}

// MarshalJSON renders the value as the natural JSON scalar for its kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Flt)
	case KindBool:
		return json.Marshal(v.Bool)
	}
	return []byte("null"), nil
}

// Row is one result row keyed by display column name.
type Row map[string]Value
