package parser

import (
	"fmt"
	"strconv"

	"github.com/tmplforge/doctpl/core/ast"
	"github.com/tmplforge/doctpl/core/lexer"
)

// exprParser implements the expression grammar from §4.C over a pre-lexed
// token slice. It is deliberately tiny and closed: anything it cannot
// reduce to Path/NumberLit/StringLit/UnaryExpr/BinaryExpr is rejected,
// which is what makes host-escape attempts like `${ ({}).toString() }`
// fail as BadExpression rather than ever reaching a host interpreter (§9).
type exprParser struct {
	toks       []lexer.Token
	i          int
	parenDepth int
	maxParen   int
}

// badExprError marks a semantically-scoped expression failure (BadExpression,
// §7) as opposed to a *ParseError, which aborts the whole render.
type badExprError struct{ msg string }

func (e *badExprError) Error() string { return e.msg }

func newExprParser(toks []lexer.Token) *exprParser {
	return &exprParser{toks: toks}
}

func (p *exprParser) cur() lexer.Token {
	if p.i >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.i]
}

func (p *exprParser) advance() lexer.Token {
	t := p.cur()
	if p.i < len(p.toks) {
		p.i++
	}
	return t
}

// atEnd reports whether every token has been consumed.
func (p *exprParser) atEnd() bool { return p.i >= len(p.toks) }

// ParseExpr parses the full expr grammar (comparison/boolean/arithmetic),
// used by #if conditions.
func (p *exprParser) ParseExpr() (ast.Expr, error) {
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, &badExprError{fmt.Sprintf("unexpected token %q after expression", p.cur().Value)}
	}
	return e, nil
}

func (p *exprParser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.OR {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: "||", L: left, R: right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.AND {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: "&&", L: left, R: right}
	}
	return left, nil
}

func (p *exprParser) parseNot() (ast.Expr, error) {
	if p.cur().Type == lexer.NOT {
		p.advance()
		x, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: "!", X: x}, nil
	}
	return p.parseComparison()
}

var cmpOps = map[lexer.TokenType]string{
	lexer.EQ: "==", lexer.NEQ: "!=", lexer.SEQ: "===", lexer.SNEQ: "!==",
	lexer.LT: "<", lexer.LTE: "<=", lexer.GT: ">", lexer.GTE: ">=",
}

func (p *exprParser) parseComparison() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.cur().Type]; ok {
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return ast.BinaryExpr{Op: op, L: left, R: right}, nil
	}
	return left, nil
}

func (p *exprParser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.PLUS || p.cur().Type == lexer.MINUS {
		op := "+"
		if p.cur().Type == lexer.MINUS {
			op = "-"
		}
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *exprParser) parseFactor() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.STAR || p.cur().Type == lexer.SLASH || p.cur().Type == lexer.PCT {
		var op string
		switch p.cur().Type {
		case lexer.STAR:
			op = "*"
		case lexer.SLASH:
			op = "/"
		case lexer.PCT:
			op = "%"
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (ast.Expr, error) {
	if p.cur().Type == lexer.MINUS {
		p.advance()
		x, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: "-", X: x}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.INT:
		p.advance()
		n, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, &badExprError{fmt.Sprintf("invalid integer literal %q", tok.Value)}
		}
		return ast.NumberLit{Value: n}, nil
	case lexer.STRING:
		p.advance()
		return ast.StringLit{Value: tok.Value}, nil
	case lexer.IDENT:
		return p.parsePathExpr()
	case lexer.LPAREN:
		p.advance()
		p.parenDepth++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur().Type != lexer.RPAREN {
			return nil, &badExprError{"unbalanced parentheses in expression"}
		}
		p.advance()
		p.parenDepth--
		return inner, nil
	default:
		return nil, &badExprError{fmt.Sprintf("unexpected token %q in expression", tok.Value)}
	}
}

// parsePathExpr parses `path` as an Expr (wraps Path for the Expr interface).
func (p *exprParser) parsePathExpr() (ast.Expr, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	return path, nil
}

// ParsePath parses just the `path` production, used directly by INTERP and
// EACH headers per the grammar (neither accepts a full expr).
func (p *exprParser) ParsePath() (ast.Path, error) {
	path, err := p.parsePath()
	if err != nil {
		return ast.Path{}, err
	}
	if !p.atEnd() {
		return ast.Path{}, &badExprError{fmt.Sprintf("unexpected token %q after path", p.cur().Value)}
	}
	return path, nil
}

func (p *exprParser) parsePath() (ast.Path, error) {
	tok := p.cur()
	if tok.Type != lexer.IDENT {
		return ast.Path{}, &badExprError{fmt.Sprintf("expected identifier, got %q", tok.Value)}
	}
	p.advance()
	path := ast.Path{ThisPrefixed: tok.Value == "this"}
	if !path.ThisPrefixed {
		path.Segments = append(path.Segments, ast.PathSegment{Ident: tok.Value})
	}
	for {
		switch p.cur().Type {
		case lexer.DOT:
			p.advance()
			id := p.cur()
			if id.Type != lexer.IDENT {
				return ast.Path{}, &badExprError{"expected identifier after '.'"}
			}
			p.advance()
			path.Segments = append(path.Segments, ast.PathSegment{Ident: id.Value})
		case lexer.LBRACKET:
			p.advance()
			num := p.cur()
			if num.Type != lexer.INT {
				return ast.Path{}, &badExprError{"expected integer index inside '['"}
			}
			p.advance()
			n, _ := strconv.Atoi(num.Value)
			if p.cur().Type != lexer.RBRACKET {
				return ast.Path{}, &badExprError{"unterminated '[' index"}
			}
			p.advance()
			path.Segments = append(path.Segments, ast.PathSegment{Index: n, IsIdx: true})
		default:
			return path, nil
		}
	}
}
