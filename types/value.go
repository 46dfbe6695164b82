package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds
type Kind uint8

const (
	// KindMissing marks a field that was never provided. It is the zero Kind so
	// that lookups of absent keys yield a missing Value.
	KindMissing Kind = iota
	// KindNull is an explicit null
	KindNull
	KindString
	KindNumber
	KindBool
	// KindObject holds a nested Record
	KindObject
	// KindSequence holds an ordered list of Values
	KindSequence
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Value is a closed tagged union over everything a Record field can hold.
// The zero Value is Missing, which is distinct from Null.
type Value struct {
	kind Kind
	str  string
	num  float64
	bit  bool
	obj  Record
	seq  []Value
}

// Missing returns the absent value
func Missing() Value { return Value{} }

// Null returns an explicit null
func Null() Value { return Value{kind: KindNull} }

// String wraps a string
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a float64
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Int wraps an integer as a Number
func Int(n int64) Value { return Value{kind: KindNumber, num: float64(n)} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: KindBool, bit: b} }

// Object wraps a nested record. A nil record is stored as an empty one.
func Object(r Record) Value {
	if r == nil {
		r = Record{}
	}
	return Value{kind: KindObject, obj: r}
}

// List builds a sequence from the given values
func List(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{kind: KindSequence, seq: values}
}

// Kind reports the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v was never provided
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsNull reports whether v is an explicit null
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsPresent reports whether v carries anything, including an explicit null
func (v Value) IsPresent() bool { return v.kind != KindMissing }

// IsSequence reports whether v is an ordered sequence
func (v Value) IsSequence() bool { return v.kind == KindSequence }

// IsObject reports whether v is a nested record
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsScalar reports whether v is a string, number or bool
func (v Value) IsScalar() bool {
	return v.kind == KindString || v.kind == KindNumber || v.kind == KindBool
}

// Str returns the string payload and whether v is a string
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Float returns the numeric payload and whether v is a number
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Truth returns the boolean payload and whether v is a bool
func (v Value) Truth() (bool, bool) { return v.bit, v.kind == KindBool }

// Object returns the nested record, or nil when v is not an object
func (v Value) Object() Record {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Items returns the sequence elements, or nil when v is not a sequence
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Len returns the number of elements of a sequence and 0 for anything else
func (v Value) Len() int { return len(v.Items()) }

// Key returns the canonical string form used for identities and membership
// tests. Numbers are formatted without trailing zeros so 10 and 10.0 collide.
func (v Value) Key() string {
	switch v.kind {
	case KindMissing:
		return ""
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.bit)
	default:
		data, err := json.Marshal(v.Native())
		if err != nil {
			return fmt.Sprintf("%v", v.Native())
		}
		return string(data)
	}
}

// String implements fmt.Stringer using the canonical key
func (v Value) String() string { return v.Key() }

// Equal reports deep equality. Numbers compare by value, objects by content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindMissing, KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.bit == o.bit
	case KindObject:
		return v.obj.Equal(o.obj)
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy of v
func (v Value) Clone() Value {
	switch v.kind {
	case KindObject:
		return Object(v.obj.Clone())
	case KindSequence:
		items := make([]Value, len(v.seq))
		for i, item := range v.seq {
			items[i] = item.Clone()
		}
		return List(items...)
	default:
		return v
	}
}

// Native converts v into plain Go values (nil, string, float64/int64, bool,
// map[string]any, []any) suitable for encoders. Missing converts to nil.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1<<53 {
			return int64(v.num)
		}
		return v.num
	case KindBool:
		return v.bit
	case KindObject:
		return v.obj.Native()
	case KindSequence:
		items := make([]any, len(v.seq))
		for i, item := range v.seq {
			items[i] = item.Native()
		}
		return items
	default:
		return nil
	}
}

// MarshalJSON encodes the native form of v
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// UnmarshalJSON decodes any JSON document into a Value
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	converted, err := From(raw)
	if err != nil {
		return err
	}
	*v = converted
	return nil
}

// MarshalYAML encodes the native form of v
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Native(), nil
}

// From converts decoded YAML/JSON values and common Go scalars into a Value
func From(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case Record:
		return Object(x), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Number(float64(x)), nil
	case uint8:
		return Number(float64(x)), nil
	case uint16:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case float32:
		return Number(float64(x)), nil
	case float64:
		return Number(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return Number(f), nil
	case map[string]any:
		rec := make(Record, len(x))
		for k, item := range x {
			converted, err := From(item)
			if err != nil {
				return Value{}, fmt.Errorf("field %s: %w", k, err)
			}
			rec[k] = converted
		}
		return Object(rec), nil
	case map[any]any:
		rec := make(Record, len(x))
		for k, item := range x {
			converted, err := From(item)
			if err != nil {
				return Value{}, fmt.Errorf("field %v: %w", k, err)
			}
			rec[fmt.Sprintf("%v", k)] = converted
		}
		return Object(rec), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			converted, err := From(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = converted
		}
		return List(items...), nil
	case []string:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = String(item)
		}
		return List(items...), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// MustFrom is From for literals in tests and fixtures. It panics on
// unsupported types.
func MustFrom(raw any) Value {
	v, err := From(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare orders two values: numbers numerically when both sides are numbers,
// everything else by canonical key. Missing and null sort first.
func Compare(a, b Value) int {
	if a.kind == KindNumber && b.kind == KindNumber {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	}
	aEmpty := a.kind == KindMissing || a.kind == KindNull
	bEmpty := b.kind == KindMissing || b.kind == KindNull
	switch {
	case aEmpty && bEmpty:
		return 0
	case aEmpty:
		return -1
	case bEmpty:
		return 1
	}
	return strings.Compare(a.Key(), b.Key())
}

// SortedKeys returns the keys of m in lexical order
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
