// Package ast defines the expression grammar and directive tree produced by
// core/parser and consumed by core/eval and core/exec (§3, §4.C).
package ast

// Expr is an evaluable expression node: path, literal, unary or binary.
type Expr interface{ exprNode() }

// PathSegment is one step of a dotted/indexed path: either a bare
// identifier (`.foo`) or an integer index (`[3]`).
type PathSegment struct {
	Ident string
	Index int
	IsIdx bool
}

// Path is an identifier chain such as `this.items[0].name`.
type Path struct {
	// ThisPrefixed is true when the path began with the literal `this`
	// token, which forces resolution from the innermost loop frame only.
	ThisPrefixed bool
	Segments     []PathSegment
}

func (Path) exprNode() {}

// NumberLit is an integer literal (the grammar's only numeric literal form).
type NumberLit struct{ Value float64 }

func (NumberLit) exprNode() {}

// StringLit is a single- or double-quoted string literal.
type StringLit struct{ Value string }

func (StringLit) exprNode() {}

// UnaryExpr is `!`/`not` or unary `-`.
type UnaryExpr struct {
	Op string // "!", "-"
	X  Expr
}

func (UnaryExpr) exprNode() {}

// BinaryExpr covers comparison, boolean and arithmetic operators.
type BinaryExpr struct {
	Op   string // "==", "!=", "===", "!==", "<", "<=", ">", ">=", "&&", "||", "+", "-", "*", "/", "%"
	L, R Expr
}

func (BinaryExpr) exprNode() {}

// Formatter is one stage of a `|`-separated pipe chain: a name plus
// colon-separated raw string arguments.
type Formatter struct {
	Name string
	Args []string
}

// Pos records the byte ranges of a directive's opener and (for block
// directives) closer tags, so the table-row cleaner (G) can reason about
// what a row's raw text contained before expansion.
type Pos struct {
	OpenStart, OpenEnd   int
	CloseStart, CloseEnd int // equal to OpenStart/OpenEnd for INTERP
}

// Node is one element of the directive tree (§3).
type Node interface{ nodeKind() }

// Literal is an inert XML span emitted verbatim.
type Literal struct {
	Span string
}

func (Literal) nodeKind() {}

// Interp is a value interpolation: an expression plus a left-to-right
// formatter pipeline.
type Interp struct {
	Expr       Expr
	Formatters []Formatter
	Pos        Pos
	// Raw is the original `${...}` source text, used in diagnostic
	// placeholders (`[ERROR: <expr>]`).
	Raw string
	// BadExpr marks an expression the parser could not reduce to the
	// closed grammar (§9's host-escape rejection). The executor renders
	// such nodes as a diagnostic placeholder instead of evaluating them.
	BadExpr bool
	ErrMsg  string
}

func (Interp) nodeKind() {}

// If is a conditional with an optional else branch.
type If struct {
	Cond    Expr
	Then    []Node
	Else    []Node // nil when there is no ${#else}
	Pos     Pos
	Raw     string
	BadExpr bool
	ErrMsg  string
}

func (If) nodeKind() {}

// Each is a loop over an iterable expression.
type Each struct {
	Iter    Expr
	Body    []Node
	Pos     Pos
	Raw     string
	BadExpr bool
	ErrMsg  string
}

func (Each) nodeKind() {}
