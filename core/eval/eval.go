// Package eval implements the expression evaluator (§4.D): a closed
// interpreter over core/ast.Expr that resolves paths against a
// core/scope.Frame chain and evaluates comparisons, boolean and arithmetic
// operators. It never invokes a host interpreter — unknown constructs
// cannot reach this package at all, because core/parser already rejected
// them as BadExpression before an Expr tree exists for them (§9).
package eval

import (
	"fmt"
	"math"

	"github.com/tmplforge/doctpl/core/ast"
	"github.com/tmplforge/doctpl/core/scope"
	"github.com/tmplforge/doctpl/core/value"
)

// Error reports a runtime evaluation failure. Per §7 this is scoped to the
// offending node by the caller (core/exec), never aborts the whole render.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Eval evaluates expr against the given scope frame.
func Eval(expr ast.Expr, f *scope.Frame) (value.Value, error) {
	switch e := expr.(type) {
	case ast.Path:
		return evalPath(e, f), nil
	case ast.NumberLit:
		return value.Number(e.Value), nil
	case ast.StringLit:
		return value.String(e.Value), nil
	case ast.UnaryExpr:
		return evalUnary(e, f)
	case ast.BinaryExpr:
		return evalBinary(e, f)
	default:
		return value.Null(), &Error{Msg: fmt.Sprintf("unsupported expression node %T", expr)}
	}
}

func evalPath(p ast.Path, f *scope.Frame) value.Value {
	if p.ThisPrefixed {
		names := segmentNames(p.Segments)
		v := f.LookupThis(names)
		for _, seg := range p.Segments[len(names):] {
			if seg.IsIdx {
				v = scope.Index(v, seg.Index)
			} else {
				v = lookupField(v, seg.Ident)
			}
		}
		return v
	}
	if len(p.Segments) == 0 {
		return value.Null()
	}
	head := p.Segments[0]
	if head.IsIdx {
		// A bare path cannot start with an index; defensive no-op.
		return value.Null()
	}
	names := []string{head.Ident}
	for _, s := range p.Segments[1:] {
		if s.IsIdx {
			break
		}
		names = append(names, s.Ident)
	}
	v := f.Lookup(names)
	// Apply any trailing index segments, and any ident segments that
	// followed an index (mixed `a[0].b` paths).
	idx := len(names)
	for idx < len(p.Segments) {
		seg := p.Segments[idx]
		if seg.IsIdx {
			v = scope.Index(v, seg.Index)
		} else {
			v = lookupField(v, seg.Ident)
		}
		idx++
	}
	return v
}

func lookupField(v value.Value, key string) value.Value {
	u, _ := value.Unwrap(v)
	if u.Kind != value.KindRecord {
		return value.Null()
	}
	fv, ok := u.Record.Get(key)
	if !ok {
		return value.Null()
	}
	return fv
}

func segmentNames(segs []ast.PathSegment) []string {
	names := make([]string, 0, len(segs))
	for _, s := range segs {
		if !s.IsIdx {
			names = append(names, s.Ident)
		} else {
			break
		}
	}
	return names
}

func evalUnary(e ast.UnaryExpr, f *scope.Frame) (value.Value, error) {
	x, err := Eval(e.X, f)
	if err != nil {
		return value.Null(), err
	}
	switch e.Op {
	case "!":
		return value.Bool(!value.Truthy(x)), nil
	case "-":
		return value.Number(-value.ToNumber(x)), nil
	default:
		return value.Null(), &Error{Msg: "unknown unary operator " + e.Op}
	}
}

func evalBinary(e ast.BinaryExpr, f *scope.Frame) (value.Value, error) {
	switch e.Op {
	case "&&":
		l, err := Eval(e.L, f)
		if err != nil {
			return value.Null(), err
		}
		if !value.Truthy(l) {
			return value.Bool(false), nil
		}
		r, err := Eval(e.R, f)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(value.Truthy(r)), nil
	case "||":
		l, err := Eval(e.L, f)
		if err != nil {
			return value.Null(), err
		}
		if value.Truthy(l) {
			return value.Bool(true), nil
		}
		r, err := Eval(e.R, f)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(value.Truthy(r)), nil
	}

	l, err := Eval(e.L, f)
	if err != nil {
		return value.Null(), err
	}
	r, err := Eval(e.R, f)
	if err != nil {
		return value.Null(), err
	}

	switch e.Op {
	case "==":
		return value.Bool(value.WeakEqual(l, r)), nil
	case "!=":
		return value.Bool(!value.WeakEqual(l, r)), nil
	case "===":
		return value.Bool(value.StrictEqual(l, r)), nil
	case "!==":
		return value.Bool(!value.StrictEqual(l, r)), nil
	case "<", "<=", ">", ">=":
		ln, rn := value.ToNumber(l), value.ToNumber(r)
		return value.Bool(compareNumbers(e.Op, ln, rn)), nil
	case "+":
		// Numeric addition only; string concatenation is not part of this
		// grammar (use `join`/formatters to build text).
		return arith(e.Op, l, r), nil
	case "-", "*", "/", "%":
		return arith(e.Op, l, r), nil
	default:
		return value.Null(), &Error{Msg: "unknown binary operator " + e.Op}
	}
}

func compareNumbers(op string, a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}

func arith(op string, l, r value.Value) value.Value {
	a, b := value.ToNumber(l), value.ToNumber(r)
	switch op {
	case "+":
		return value.Number(a + b)
	case "-":
		return value.Number(a - b)
	case "*":
		return value.Number(a * b)
	case "/":
		// Division by zero yields Infinity/NaN per IEEE-754 (§4.D); Go's
		// float division already implements this, no special-casing needed.
		return value.Number(a / b)
	case "%":
		return value.Number(math.Mod(a, b))
	}
	return value.Null()
}
