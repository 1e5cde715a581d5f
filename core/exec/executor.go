// Package exec implements the template executor (§4.F): a single
// recursive walk over the directive tree that binds loop scopes, applies
// formatters, and emits XML text — replacing the source's multi-pass
// regex pipeline (loops, then tables, then conditions, then variables)
// with one pass, per §9.
package exec

import (
	"log/slog"
	"strings"

	"github.com/tmplforge/doctpl/core/ast"
	"github.com/tmplforge/doctpl/core/eval"
	"github.com/tmplforge/doctpl/core/format"
	"github.com/tmplforge/doctpl/core/invariant"
	"github.com/tmplforge/doctpl/core/scope"
	"github.com/tmplforge/doctpl/core/value"
)

// StylingEmit selects how styling formatters surface in the emitted XML,
// per the `styling_emit` configuration option (§6).
type StylingEmit string

const (
	StylingFlatten  StylingEmit = "flatten"
	StylingRunProps StylingEmit = "run_props"
)

// Options configures one Execute call.
type Options struct {
	Formatters  *format.Registry
	Logger      *slog.Logger
	StylingEmit StylingEmit
}

func (o Options) withDefaults() Options {
	if o.Formatters == nil {
		o.Formatters = format.Default
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.StylingEmit == "" {
		o.StylingEmit = StylingFlatten
	}
	return o
}

// Warning is a non-fatal diagnostic raised while executing (§7: expression
// and formatter errors are scoped to their node, not the whole render).
type Warning struct {
	Kind    string // "bad_expression", "unknown_formatter", "not_iterable"
	Message string
	Pos     ast.Pos
}

// Result is the outcome of one Execute call.
type Result struct {
	Output   string
	Warnings []Warning
}

// Execute walks nodes against the root data object and returns the
// emitted text plus any warnings collected along the way.
func Execute(nodes []ast.Node, data value.Value, opts Options) Result {
	opts = opts.withDefaults()
	e := &executor{opts: opts}
	root := scope.NewRoot(data)
	var b strings.Builder
	e.walk(nodes, root, &b)
	return Result{Output: b.String(), Warnings: e.warnings}
}

type executor struct {
	opts     Options
	warnings []Warning
}

// errorPlaceholder builds the `[ERROR: ...]` diagnostic text from a
// directive's raw `${...}` source, stripping the delimiters so the
// placeholder reads as the offending expression rather than the whole tag.
func errorPlaceholder(raw string) string {
	inner := strings.TrimSpace(raw)
	inner = strings.TrimPrefix(inner, "${")
	inner = strings.TrimSuffix(inner, "}")
	return "[ERROR: " + strings.TrimSpace(inner) + "]"
}

func (e *executor) warn(kind, msg string, pos ast.Pos) {
	e.warnings = append(e.warnings, Warning{Kind: kind, Message: msg, Pos: pos})
	e.opts.Logger.Warn("doctpl: "+kind, "message", msg, "pos", pos.OpenStart)
}

// walk emits nodes in document order into b. Loops are expanded at their
// site, conditionals recurse into the chosen branch, and interpolations
// resolve inline — all within this one pass (§4.F, §9).
func (e *executor) walk(nodes []ast.Node, f *scope.Frame, b *strings.Builder) {
	for _, n := range nodes {
		switch node := n.(type) {
		case ast.Literal:
			b.WriteString(node.Span)
		case ast.Interp:
			e.execInterp(node, f, b)
		case ast.If:
			e.execIf(node, f, b)
		case ast.Each:
			e.execEach(node, f, b)
		default:
			invariant.Invariant(false, "unknown directive node type %T", n)
		}
	}
}

func (e *executor) execInterp(n ast.Interp, f *scope.Frame, b *strings.Builder) {
	if n.BadExpr {
		e.warn("bad_expression", n.ErrMsg, n.Pos)
		b.WriteString(format.XMLEscape(errorPlaceholder(n.Raw)))
		return
	}
	v, err := eval.Eval(n.Expr, f)
	if err != nil {
		e.warn("bad_expression", err.Error(), n.Pos)
		b.WriteString(format.XMLEscape(errorPlaceholder(n.Raw)))
		return
	}
	for _, stage := range n.Formatters {
		nv, ferr := e.opts.Formatters.Apply(stage.Name, stage.Args, v)
		if ferr != nil {
			e.warn("unknown_formatter", ferr.Error(), n.Pos)
			continue // value passes through unchanged (§4.E)
		}
		v = nv
	}
	b.WriteString(e.render(v))
}

// render stringifies and XML-escapes the final interpolated value,
// optionally wrapping it in run properties when StylingEmit is run_props
// (§9: "an implementation MAY emit styled runs").
func (e *executor) render(v value.Value) string {
	inner, st := value.Unwrap(v)
	text := format.XMLEscape(value.ToString(inner))
	if e.opts.StylingEmit != StylingRunProps || isZeroStyle(st) {
		return text
	}
	return wrapRunProps(text, st)
}

func isZeroStyle(s value.Style) bool {
	return !s.Bold && !s.Italic && !s.Underline && s.SizePt == 0 && s.Color == ""
}

func wrapRunProps(text string, st value.Style) string {
	var rpr strings.Builder
	rpr.WriteString("<w:rPr>")
	if st.Bold {
		rpr.WriteString("<w:b/>")
	}
	if st.Italic {
		rpr.WriteString("<w:i/>")
	}
	if st.Underline {
		rpr.WriteString(`<w:u w:val="single"/>`)
	}
	if st.SizePt != 0 {
		rpr.WriteString(`<w:sz w:val="`)
		rpr.WriteString(itoa(st.SizePt * 2)) // half-points
		rpr.WriteString(`"/>`)
	}
	if st.Color != "" {
		rpr.WriteString(`<w:color w:val="`)
		rpr.WriteString(st.Color)
		rpr.WriteString(`"/>`)
	}
	rpr.WriteString("</w:rPr>")
	return `<w:r>` + rpr.String() + `<w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (e *executor) execIf(n ast.If, f *scope.Frame, b *strings.Builder) {
	if n.BadExpr {
		e.warn("bad_expression", n.ErrMsg, n.Pos)
		b.WriteString(format.XMLEscape(errorPlaceholder(n.Raw)))
		return
	}
	cond, err := eval.Eval(n.Cond, f)
	if err != nil {
		e.warn("bad_expression", err.Error(), n.Pos)
		b.WriteString(format.XMLEscape(errorPlaceholder(n.Raw)))
		return
	}
	if value.Truthy(cond) {
		e.walk(n.Then, f, b)
	} else if n.Else != nil {
		e.walk(n.Else, f, b)
	}
}

func (e *executor) execEach(n ast.Each, f *scope.Frame, b *strings.Builder) {
	if n.BadExpr {
		e.warn("bad_expression", n.ErrMsg, n.Pos)
		b.WriteString(format.XMLEscape(errorPlaceholder(n.Raw)))
		return
	}
	iter, err := eval.Eval(n.Iter, f)
	if err != nil {
		e.warn("bad_expression", err.Error(), n.Pos)
		b.WriteString(format.XMLEscape(errorPlaceholder(n.Raw)))
		return
	}
	u, _ := value.Unwrap(iter)
	if u.Kind != value.KindList {
		e.warn("not_iterable", "#each target is not a list", n.Pos)
		return
	}
	count := len(u.List)
	for i, el := range u.List {
		child := f.Push(el, i, count)
		// Iteration frames are scoped to the loop body only: walk
		// immediately and let child go out of scope on return, per the
		// "frames exist only for the duration of their loop iteration"
		// lifetime rule (§3). Concatenation, not "\n", joins iterations
		// (§9 open question, resolved here).
		e.walk(n.Body, child, b)
	}
}
