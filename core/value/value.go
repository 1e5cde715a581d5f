// Package value implements the tagged-union Value type that flows through
// the expression evaluator, formatter library, and template executor (§3).
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the dynamic type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindRecord
	KindStyled
)

// Style describes run-level formatting flags applied by a styling
// formatter (bold, italic, underline, size, color). Zero value means "not
// set"; styles compose, so a Styled value carries the union of every
// styling formatter applied in its pipe chain.
type Style struct {
	Bold      bool
	Italic    bool
	Underline bool
	SizePt    int    // 0 means unset
	Color     string // hex RRGGBB or named color, "" means unset
}

// Merge returns the union of s and other, with other's explicit fields
// taking precedence where both set the same scalar field.
func (s Style) Merge(other Style) Style {
	out := s
	if other.Bold {
		out.Bold = true
	}
	if other.Italic {
		out.Italic = true
	}
	if other.Underline {
		out.Underline = true
	}
	if other.SizePt != 0 {
		out.SizePt = other.SizePt
	}
	if other.Color != "" {
		out.Color = other.Color
	}
	return out
}

// Value is the tagged union described in §3. Exactly one of the typed
// fields is meaningful for a given Kind.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Str    string
	List   []Value
	Record *Record
	Style  Style
	Inner  *Value // for KindStyled: the wrapped value
}

// Record is an ordered string-keyed map, preserving insertion order so that
// formatter output (e.g. join over record fields) is deterministic.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord returns an empty ordered record.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set inserts or overwrites a key, preserving first-insertion order.
func (r *Record) Set(key string, v Value) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value for key and whether it was present.
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	return r.keys
}

// SortedKeys returns a copy of the keys sorted lexically; used only by
// diagnostics, never by evaluation order.
func (r *Record) SortedKeys() []string {
	out := append([]string(nil), r.keys...)
	sort.Strings(out)
	return out
}

// Constructors.

func Null() Value                { return Value{Kind: KindNull} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value     { return Value{Kind: KindNumber, Number: n} }
func String(s string) Value      { return Value{Kind: KindString, Str: s} }
func List(items []Value) Value   { return Value{Kind: KindList, List: items} }
func RecordOf(r *Record) Value   { return Value{Kind: KindRecord, Record: r} }

// Styled wraps v with style st. Repeated styling collapses into one Styled
// node carrying the merged style, per §3/§9 (styling wrappers flow through
// subsequent non-styling formatters by operating on the underlying value).
func Styled(v Value, st Style) Value {
	if v.Kind == KindStyled {
		merged := v.Style.Merge(st)
		return Value{Kind: KindStyled, Inner: v.Inner, Style: merged}
	}
	inner := v
	return Value{Kind: KindStyled, Inner: &inner, Style: st}
}

// Unwrap returns the underlying value and its accumulated style, peeling
// away any KindStyled wrapper. Non-styled values return themselves and the
// zero Style.
func Unwrap(v Value) (Value, Style) {
	if v.Kind == KindStyled {
		return *v.Inner, v.Style
	}
	return v, Style{}
}

// IsNull reports whether v is the Null value (ignoring styling wrapper).
func IsNull(v Value) bool {
	u, _ := Unwrap(v)
	return u.Kind == KindNull
}

// Truthy implements §3's truthiness rule: Null, false, 0, "" and an empty
// List are falsy; everything else (including an empty Record) is truthy.
func Truthy(v Value) bool {
	u, _ := Unwrap(v)
	switch u.Kind {
	case KindNull:
		return false
	case KindBool:
		return u.Bool
	case KindNumber:
		return u.Number != 0
	case KindString:
		return u.Str != ""
	case KindList:
		return len(u.List) > 0
	default:
		return true
	}
}

// ToNumber is the deterministic numeric coercion used by comparisons and
// arithmetic (§4.D): parse a decimal, else NaN.
func ToNumber(v Value) float64 {
	u, _ := Unwrap(v)
	switch u.Kind {
	case KindNumber:
		return u.Number
	case KindBool:
		if u.Bool {
			return 1
		}
		return 0
	case KindString:
		s := strings.TrimSpace(u.Str)
		if s == "" {
			return math.NaN()
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	case KindNull:
		return 0
	default:
		return math.NaN()
	}
}

// WeakEqual implements the evaluator's weak equality: numeric-coerce if
// either side is a Number, else compare by Kind and underlying value.
func WeakEqual(a, b Value) bool {
	ua, _ := Unwrap(a)
	ub, _ := Unwrap(b)
	if ua.Kind == KindNumber || ub.Kind == KindNumber {
		na, nb := ToNumber(ua), ToNumber(ub)
		if math.IsNaN(na) || math.IsNaN(nb) {
			return ua.Kind == ub.Kind && ua.Kind == KindNull
		}
		return na == nb
	}
	if ua.Kind != ub.Kind {
		return false
	}
	switch ua.Kind {
	case KindNull:
		return true
	case KindBool:
		return ua.Bool == ub.Bool
	case KindString:
		return ua.Str == ub.Str
	case KindList:
		if len(ua.List) != len(ub.List) {
			return false
		}
		for i := range ua.List {
			if !WeakEqual(ua.List[i], ub.List[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		if len(ua.Record.Keys()) != len(ub.Record.Keys()) {
			return false
		}
		for _, k := range ua.Record.Keys() {
			bv, ok := ub.Record.Get(k)
			if !ok {
				return false
			}
			av, _ := ua.Record.Get(k)
			if !WeakEqual(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// StrictEqual implements "===": same Kind and, for Number, exact identity
// (NaN never equals NaN, matching IEEE-754), otherwise structural equality.
func StrictEqual(a, b Value) bool {
	ua, _ := Unwrap(a)
	ub, _ := Unwrap(b)
	if ua.Kind != ub.Kind {
		return false
	}
	if ua.Kind == KindNumber {
		return ua.Number == ub.Number
	}
	return WeakEqual(a, b)
}

// ToString stringifies v for emission or formatter input. Arithmetic
// results that are Infinity/NaN stringify per IEEE-754 textual convention
// (§4.D).
func ToString(v Value) string {
	u, _ := Unwrap(v)
	switch u.Kind {
	case KindNull:
		return ""
	case KindBool:
		if u.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(u.Number)
	case KindString:
		return u.Str
	case KindList:
		parts := make([]string, len(u.List))
		for i, e := range u.List {
			parts[i] = ToString(e)
		}
		return strings.Join(parts, ", ")
	case KindRecord:
		return fmt.Sprintf("[object: %d fields]", len(u.Record.Keys()))
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Length implements the `length` formatter's generic rule: list/string
// length, else 0.
func Length(v Value) int {
	u, _ := Unwrap(v)
	switch u.Kind {
	case KindString:
		return len([]rune(u.Str))
	case KindList:
		return len(u.List)
	default:
		return 0
	}
}
