package parser

import (
	"strings"

	"github.com/tmplforge/doctpl/core/ast"
	"github.com/tmplforge/doctpl/core/lexer"
)

type directiveKind int

const (
	kindInterp directiveKind = iota
	kindIfOpen
	kindEachOpen
	kindElse
	kindEndIf
	kindEndEach
)

// directiveInfo is the result of lexing and classifying one `${...}` span.
type directiveInfo struct {
	kind       directiveKind
	expr       ast.Expr
	path       ast.Path
	formatters []ast.Formatter
	badExpr    bool
	errMsg     string
	openStart  int // index of '$' in '${'
	end        int // index just past the closing '}'
	raw        string
}

// parseDirectiveHeader lexes and classifies the `${...}` span starting at
// p.pos (which must point at '$'). It advances nothing on p itself; callers
// set p.pos = info.end.
func (p *parserState) parseDirectiveHeader() (directiveInfo, error) {
	openStart := p.pos
	if !strings.HasPrefix(p.src[openStart:], "${") {
		return directiveInfo{}, newParseError(ErrUnterminatedDirective, "expected '${'", openStart, p.line(openStart), p.col(openStart))
	}
	base := openStart + 2
	lx := lexer.New(p.src[base:])

	var toks []lexer.Token
	var rbracePos int
	found := false
	depth := 0
	for {
		t := lx.Next()
		if t.Type == lexer.EOF {
			break
		}
		if t.Type == lexer.RBRACE {
			if depth == 0 {
				rbracePos = base + t.Pos
				found = true
				break
			}
			depth--
		} else if t.Type == lexer.ILLEGAL && t.Value == "{" {
			// A stray '{' is never valid inside a directive, but its matching
			// '}' must not be taken as the directive's own closer.
			depth++
		}
		// absolute-position the token for downstream raw-slicing
		t.Pos += base
		toks = append(toks, t)
	}
	if !found {
		return directiveInfo{}, newParseError(ErrUnterminatedDirective, "directive is missing a closing '}'", openStart, p.line(openStart), p.col(openStart))
	}
	end := rbracePos + 1
	raw := p.src[openStart:end]

	if len(toks) == 0 {
		return directiveInfo{}, &ParseError{Kind: ErrUnknownKeyword, Message: "empty directive", Pos: openStart, Line: p.line(openStart), Col: p.col(openStart), OpenedAt: -1}
	}

	head := toks[0]
	switch head.Type {
	case lexer.KW_ELSE:
		return directiveInfo{kind: kindElse, openStart: openStart, end: end, raw: raw}, nil
	case lexer.KW_ENDIF:
		return directiveInfo{kind: kindEndIf, openStart: openStart, end: end, raw: raw}, nil
	case lexer.KW_ENDEACH:
		return directiveInfo{kind: kindEndEach, openStart: openStart, end: end, raw: raw}, nil
	case lexer.KW_IF:
		ep := newExprParser(toks[1:])
		expr, err := ep.ParseExpr()
		info := directiveInfo{kind: kindIfOpen, openStart: openStart, end: end, raw: raw}
		if err != nil {
			if isUnbalancedParen(err) {
				return directiveInfo{}, &ParseError{Kind: ErrUnbalancedParen, Message: err.Error(), Pos: openStart, Line: p.line(openStart), Col: p.col(openStart), OpenedAt: -1}
			}
			info.badExpr = true
			info.errMsg = err.Error()
			return info, nil
		}
		info.expr = expr
		return info, nil
	case lexer.KW_EACH:
		ep := newExprParser(toks[1:])
		path, err := ep.ParsePath()
		info := directiveInfo{kind: kindEachOpen, openStart: openStart, end: end, raw: raw}
		if err != nil {
			if len(toks) == 1 {
				return directiveInfo{}, &ParseError{Kind: ErrEmptyEachTarget, Message: "#each requires a target path", Pos: openStart, Line: p.line(openStart), Col: p.col(openStart), OpenedAt: -1}
			}
			info.badExpr = true
			info.errMsg = err.Error()
			return info, nil
		}
		info.path = path
		info.expr = path
		return info, nil
	default:
		return p.parseInterpHeader(toks, openStart, end, raw)
	}
}

// parseInterpHeader handles `${path ('|' fmt)*}`. Formatter argument text
// is recovered by slicing the raw source rather than re-walking tokens, so
// that arguments containing characters the expression lexer would
// otherwise split apart (hyphens, extra colons in a date pattern, ...)
// survive intact, per §4.E ("arguments are raw strings").
func (p *parserState) parseInterpHeader(toks []lexer.Token, openStart, end int, raw string) (directiveInfo, error) {
	// Find the first top-level PIPE token, if any; everything before it is
	// the path expression.
	pathToks := toks
	pipeIdx := -1
	for i, t := range toks {
		if t.Type == lexer.PIPE {
			pipeIdx = i
			break
		}
	}
	if pipeIdx >= 0 {
		pathToks = toks[:pipeIdx]
	}

	ep := newExprParser(pathToks)
	path, err := ep.ParsePath()
	info := directiveInfo{kind: kindInterp, openStart: openStart, end: end, raw: raw}
	if err != nil {
		info.badExpr = true
		info.errMsg = err.Error()
		return info, nil
	}
	info.expr = path

	if pipeIdx < 0 {
		return info, nil
	}

	// Walk the remaining raw text (from just after the path) splitting on
	// top-level '|' boundaries located via token positions, but taking the
	// formatter name/arg text itself straight from the source.
	formatterStart := toks[pipeIdx].Pos + 1 // just past this '|'
	fmtToks := toks[pipeIdx+1:]

	for {
		nextPipe := -1
		for i, t := range fmtToks {
			if t.Type == lexer.PIPE {
				nextPipe = i
				break
			}
		}
		var segEnd int
		if nextPipe >= 0 {
			segEnd = fmtToks[nextPipe].Pos
		} else {
			segEnd = end - 1 // just before closing '}'
		}
		seg := strings.TrimSpace(p.src[formatterStart:segEnd])
		f, ok := parseFormatterSegment(seg)
		if !ok {
			info.formatters = nil
			info.badExpr = true
			info.errMsg = "malformed formatter segment: " + seg
			return info, nil
		}
		info.formatters = append(info.formatters, f)
		if nextPipe < 0 {
			break
		}
		formatterStart = fmtToks[nextPipe].Pos + 1
		fmtToks = fmtToks[nextPipe+1:]
	}
	return info, nil
}

// parseFormatterSegment parses "name" or "name:arg" raw text (§4.E). Only
// the first colon separates name from argument; any further colons (e.g. a
// time-of-day pattern "HH:mm:ss") remain part of the argument.
func parseFormatterSegment(seg string) (ast.Formatter, bool) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return ast.Formatter{}, false
	}
	name := seg
	var args []string
	if i := strings.IndexByte(seg, ':'); i >= 0 {
		name = strings.TrimSpace(seg[:i])
		arg := strings.TrimSpace(seg[i+1:])
		arg = strings.Trim(arg, "'\"")
		args = []string{arg}
	}
	if name == "" || !isValidIdent(name) {
		return ast.Formatter{}, false
	}
	return ast.Formatter{Name: name, Args: args}, true
}

func isValidIdent(s string) bool {
	for i, r := range s {
		if i == 0 && !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
		if i > 0 && !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return len(s) > 0
}

func isUnbalancedParen(err error) bool {
	return strings.Contains(err.Error(), "unbalanced parentheses")
}
