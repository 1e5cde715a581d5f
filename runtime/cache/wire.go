package cache

import "github.com/tmplforge/doctpl/core/ast"

// ast.Node and ast.Expr are interfaces, which CBOR cannot decode back into
// without knowing the concrete type up front. wireNode/wireExpr are a
// flat, tagged-union encoding of the directive tree that round-trips
// through CBOR losslessly; nodesToWire/nodesFromWire convert between the two.

type wireExpr struct {
	Kind string `cbor:"k"`

	// path
	ThisPrefixed bool          `cbor:"this,omitempty"`
	Segments     []wireSegment `cbor:"seg,omitempty"`

	// numberLit
	Number float64 `cbor:"num,omitempty"`

	// stringLit
	Str string `cbor:"str,omitempty"`

	// unary
	Op string    `cbor:"op,omitempty"`
	X  *wireExpr `cbor:"x,omitempty"`

	// binary
	L *wireExpr `cbor:"l,omitempty"`
	R *wireExpr `cbor:"r,omitempty"`
}

type wireSegment struct {
	Ident string `cbor:"id,omitempty"`
	Index int    `cbor:"idx,omitempty"`
	IsIdx bool   `cbor:"isidx,omitempty"`
}

type wireFormatter struct {
	Name string   `cbor:"name"`
	Args []string `cbor:"args,omitempty"`
}

type wireNode struct {
	Kind string `cbor:"k"`

	// literal
	Span string `cbor:"span,omitempty"`

	// interp / if / each shared
	Expr       *wireExpr       `cbor:"expr,omitempty"`
	Pos        ast.Pos         `cbor:"pos,omitempty"`
	Raw        string          `cbor:"raw,omitempty"`
	BadExpr    bool            `cbor:"bad,omitempty"`
	ErrMsg     string          `cbor:"err,omitempty"`
	Formatters []wireFormatter `cbor:"fmts,omitempty"` // interp only

	Then []wireNode `cbor:"then,omitempty"` // if only
	Else []wireNode `cbor:"else,omitempty"` // if only
	Body []wireNode `cbor:"body,omitempty"` // each only
}

func exprToWire(e ast.Expr) *wireExpr {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case ast.Path:
		segs := make([]wireSegment, len(v.Segments))
		for i, s := range v.Segments {
			segs[i] = wireSegment{Ident: s.Ident, Index: s.Index, IsIdx: s.IsIdx}
		}
		return &wireExpr{Kind: "path", ThisPrefixed: v.ThisPrefixed, Segments: segs}
	case ast.NumberLit:
		return &wireExpr{Kind: "number", Number: v.Value}
	case ast.StringLit:
		return &wireExpr{Kind: "string", Str: v.Value}
	case ast.UnaryExpr:
		return &wireExpr{Kind: "unary", Op: v.Op, X: exprToWire(v.X)}
	case ast.BinaryExpr:
		return &wireExpr{Kind: "binary", Op: v.Op, L: exprToWire(v.L), R: exprToWire(v.R)}
	default:
		return nil
	}
}

func exprFromWire(w *wireExpr) ast.Expr {
	if w == nil {
		return nil
	}
	switch w.Kind {
	case "path":
		segs := make([]ast.PathSegment, len(w.Segments))
		for i, s := range w.Segments {
			segs[i] = ast.PathSegment{Ident: s.Ident, Index: s.Index, IsIdx: s.IsIdx}
		}
		return ast.Path{ThisPrefixed: w.ThisPrefixed, Segments: segs}
	case "number":
		return ast.NumberLit{Value: w.Number}
	case "string":
		return ast.StringLit{Value: w.Str}
	case "unary":
		return ast.UnaryExpr{Op: w.Op, X: exprFromWire(w.X)}
	case "binary":
		return ast.BinaryExpr{Op: w.Op, L: exprFromWire(w.L), R: exprFromWire(w.R)}
	default:
		return nil
	}
}

func formattersToWire(fs []ast.Formatter) []wireFormatter {
	if fs == nil {
		return nil
	}
	out := make([]wireFormatter, len(fs))
	for i, f := range fs {
		out[i] = wireFormatter{Name: f.Name, Args: f.Args}
	}
	return out
}

func formattersFromWire(fs []wireFormatter) []ast.Formatter {
	if fs == nil {
		return nil
	}
	out := make([]ast.Formatter, len(fs))
	for i, f := range fs {
		out[i] = ast.Formatter{Name: f.Name, Args: f.Args}
	}
	return out
}

func nodesToWire(nodes []ast.Node) []wireNode {
	if nodes == nil {
		return nil
	}
	out := make([]wireNode, len(nodes))
	for i, n := range nodes {
		out[i] = nodeToWire(n)
	}
	return out
}

func nodeToWire(n ast.Node) wireNode {
	switch v := n.(type) {
	case ast.Literal:
		return wireNode{Kind: "literal", Span: v.Span}
	case ast.Interp:
		return wireNode{
			Kind: "interp", Expr: exprToWire(v.Expr), Formatters: formattersToWire(v.Formatters),
			Pos: v.Pos, Raw: v.Raw, BadExpr: v.BadExpr, ErrMsg: v.ErrMsg,
		}
	case ast.If:
		return wireNode{
			Kind: "if", Expr: exprToWire(v.Cond), Then: nodesToWire(v.Then), Else: nodesToWire(v.Else),
			Pos: v.Pos, Raw: v.Raw, BadExpr: v.BadExpr, ErrMsg: v.ErrMsg,
		}
	case ast.Each:
		return wireNode{
			Kind: "each", Expr: exprToWire(v.Iter), Body: nodesToWire(v.Body),
			Pos: v.Pos, Raw: v.Raw, BadExpr: v.BadExpr, ErrMsg: v.ErrMsg,
		}
	default:
		return wireNode{Kind: "literal"}
	}
}

func nodesFromWire(wire []wireNode) []ast.Node {
	if wire == nil {
		return nil
	}
	out := make([]ast.Node, len(wire))
	for i, w := range wire {
		out[i] = nodeFromWire(w)
	}
	return out
}

func nodeFromWire(w wireNode) ast.Node {
	switch w.Kind {
	case "interp":
		return ast.Interp{
			Expr: exprFromWire(w.Expr), Formatters: formattersFromWire(w.Formatters),
			Pos: w.Pos, Raw: w.Raw, BadExpr: w.BadExpr, ErrMsg: w.ErrMsg,
		}
	case "if":
		return ast.If{
			Cond: exprFromWire(w.Expr), Then: nodesFromWire(w.Then), Else: nodesFromWire(w.Else),
			Pos: w.Pos, Raw: w.Raw, BadExpr: w.BadExpr, ErrMsg: w.ErrMsg,
		}
	case "each":
		return ast.Each{
			Iter: exprFromWire(w.Expr), Body: nodesFromWire(w.Body),
			Pos: w.Pos, Raw: w.Raw, BadExpr: w.BadExpr, ErrMsg: w.ErrMsg,
		}
	default:
		return ast.Literal{Span: w.Span}
	}
}
