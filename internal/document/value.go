// SPDX-License-Identifier: MIT

// Package document models store documents as a tagged variant and provides
// path-addressed traversal, discovery and mutation of media-URL fields.
package document

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Kind identifies the shape held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindTimestamp
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged variant over the shapes a document can hold.
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	t    time.Time
	seq  []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Timestamp wraps a time.Time.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, t: t} }

// Sequence wraps an ordered list of values. The slice is not copied.
func Sequence(vs ...Value) Value { return Value{kind: KindSequence, seq: vs} }

// Mapping wraps a string-keyed map of values. The map is not copied.
func Mapping(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMapping, m: m}
}

// Kind reports the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload; ok is false for non-string values.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// BoolVal returns the boolean payload.
func (v Value) BoolVal() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// NumberVal returns the numeric payload.
func (v Value) NumberVal() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// TimestampVal returns the timestamp payload.
func (v Value) TimestampVal() (time.Time, bool) {
	if v.kind != KindTimestamp {
		return time.Time{}, false
	}
	return v.t, true
}

// SequenceVal returns the underlying sequence. Callers must not mutate it.
func (v Value) SequenceVal() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	return v.seq, true
}

// MappingVal returns the underlying mapping. Callers must not mutate it.
func (v Value) MappingVal() (map[string]Value, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.m, true
}

// Len returns the element count for sequences and mappings, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return len(v.m)
	default:
		return 0
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n || (math.IsNaN(v.n) && math.IsNaN(o.n))
	case KindString:
		return v.s == o.s
	case KindTimestamp:
		return v.t.Equal(o.t)
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
	case KindMapping:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, mv := range v.m {
			ov, ok := o.m[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy with freshly allocated containers.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSequence:
		seq := make([]Value, len(v.seq))
		for i := range v.seq {
			seq[i] = v.seq[i].Clone()
		}
		return Value{kind: KindSequence, seq: seq}
	case KindMapping:
		m := make(map[string]Value, len(v.m))
		for k, mv := range v.m {
			m[k] = mv.Clone()
		}
		return Value{kind: KindMapping, m: m}
	default:
		return v
	}
}

// FromGo converts a decoded JSON-ish Go value (string, bool, float64, int,
// time.Time, []any, map[string]any, nil) into a Value. Store drivers use this
// at the boundary; unsupported types become their string rendering.
func FromGo(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case string:
		return String(t)
	case time.Time:
		return Timestamp(t)
	case []any:
		seq := make([]Value, len(t))
		for i := range t {
			seq[i] = FromGo(t[i])
		}
		return Sequence(seq...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, mv := range t {
			m[k] = FromGo(mv)
		}
		return Mapping(m)
	case Value:
		return t
	default:
		return String(fmt.Sprint(t))
	}
}

// ToGo converts a Value back into plain Go types. Timestamps become RFC 3339
// strings so the result round-trips through encoding/json; the store driver
// owns rehydration on read.
func (v Value) ToGo() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindTimestamp:
		return v.t.UTC().Format(time.RFC3339Nano)
	case KindSequence:
		out := make([]any, len(v.seq))
		for i := range v.seq {
			out[i] = v.seq[i].ToGo()
		}
		return out
	case KindMapping:
		res := make(map[string]any, len(v.m))
		for k, mv := range v.m {
			res[k] = mv.ToGo()
		}
		return res
	}
	return nil
}

// Keys returns the mapping keys in sorted order, for deterministic traversal.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
