// Package parser implements the directive lexer/parser component (§4.C):
// it scans normalized XML text for `${...}` directives and produces the
// nested directive tree described in §3, leaving inert XML verbatim in
// Literal spans.
package parser

import (
	"strings"

	"github.com/tmplforge/doctpl/core/ast"
	"github.com/tmplforge/doctpl/core/lexer"
)

// Parse builds the directive tree for the given normalized document text.
// Parse errors (§7 parse-level kinds) abort and are returned as *ParseError.
// Expression failures inside a single directive (BadExpression) do not
// abort: the affected node is still produced, flagged so core/exec can
// emit the `[ERROR: ...]` placeholder at render time.
func Parse(src string) ([]ast.Node, error) {
	p := &parserState{src: src}
	nodes, term, err := p.parseBlock(nil)
	if err != nil {
		return nil, err
	}
	if term != lexer.EOF {
		// Only reachable if parseBlock returned a stop token with a nil
		// stop set, which parseBlock itself prevents; kept defensive.
		return nil, newParseError(ErrUnknownKeyword, "unexpected directive terminator", p.pos, p.line(p.pos), p.col(p.pos))
	}
	return nodes, nil
}

type parserState struct {
	src string
	pos int
}

func (p *parserState) line(pos int) int {
	return 1 + strings.Count(p.src[:pos], "\n")
}

func (p *parserState) col(pos int) int {
	i := strings.LastIndexByte(p.src[:pos], '\n')
	return pos - i
}

// parseBlock consumes literal text and directives from p.pos until it hits
// EOF or one of the stop keywords, returning the nodes collected and which
// stop keyword ended the block (lexer.EOF if the whole document ended).
func (p *parserState) parseBlock(stop map[lexer.TokenType]bool) ([]ast.Node, lexer.TokenType, error) {
	var nodes []ast.Node
	for {
		at, found := p.findNextDirectiveStart()
		lit := p.src[p.pos:at]
		if strings.Contains(lit, "\\${") {
			lit = strings.ReplaceAll(lit, "\\${", "${")
		}
		if lit != "" {
			nodes = append(nodes, ast.Literal{Span: lit})
		}
		p.pos = at
		if !found {
			// An open block reaching EOF is reported by the caller as
			// MissingCloser against its opener.
			return nodes, lexer.EOF, nil
		}

		info, err := p.parseDirectiveHeader()
		if err != nil {
			return nil, lexer.EOF, err
		}
		p.pos = info.end

		switch info.kind {
		case kindInterp:
			nodes = append(nodes, ast.Interp{
				Expr: info.expr, Formatters: info.formatters,
				Pos:     ast.Pos{OpenStart: info.openStart, OpenEnd: info.end, CloseStart: info.openStart, CloseEnd: info.end},
				Raw:     info.raw,
				BadExpr: info.badExpr,
				ErrMsg:  info.errMsg,
			})
		case kindIfOpen:
			thenNodes, term, err := p.parseBlock(map[lexer.TokenType]bool{lexer.KW_ELSE: true, lexer.KW_ENDIF: true})
			if err != nil {
				return nil, lexer.EOF, err
			}
			var elseNodes []ast.Node
			closeStart, closeEnd := info.openStart, info.end
			if term == lexer.KW_ELSE {
				elseHdr, err := p.parseDirectiveHeader()
				if err != nil {
					return nil, lexer.EOF, err
				}
				p.pos = elseHdr.end
				en, term2, err := p.parseBlock(map[lexer.TokenType]bool{lexer.KW_ENDIF: true})
				if err != nil {
					return nil, lexer.EOF, err
				}
				if term2 != lexer.KW_ENDIF {
					return nil, lexer.EOF, &ParseError{Kind: ErrMissingCloser, Message: "#if missing matching /if", Pos: p.pos, Line: p.line(p.pos), Col: p.col(p.pos), OpenedAt: info.openStart}
				}
				elseNodes = en
				endHdr, err := p.parseDirectiveHeader()
				if err != nil {
					return nil, lexer.EOF, err
				}
				p.pos = endHdr.end
				closeStart, closeEnd = endHdr.openStart, endHdr.end
			} else if term == lexer.KW_ENDIF {
				endHdr, err := p.parseDirectiveHeader()
				if err != nil {
					return nil, lexer.EOF, err
				}
				p.pos = endHdr.end
				closeStart, closeEnd = endHdr.openStart, endHdr.end
			} else {
				return nil, lexer.EOF, &ParseError{Kind: ErrMissingCloser, Message: "#if missing matching /if", Pos: info.openStart, Line: p.line(info.openStart), Col: p.col(info.openStart), OpenedAt: info.openStart}
			}
			nodes = append(nodes, ast.If{
				Cond: info.expr, Then: thenNodes, Else: elseNodes,
				Pos:     ast.Pos{OpenStart: info.openStart, OpenEnd: info.end, CloseStart: closeStart, CloseEnd: closeEnd},
				Raw:     info.raw,
				BadExpr: info.badExpr,
				ErrMsg:  info.errMsg,
			})
		case kindEachOpen:
			body, term, err := p.parseBlock(map[lexer.TokenType]bool{lexer.KW_ENDEACH: true})
			if err != nil {
				return nil, lexer.EOF, err
			}
			if term != lexer.KW_ENDEACH {
				return nil, lexer.EOF, &ParseError{Kind: ErrMissingCloser, Message: "#each missing matching /each", Pos: info.openStart, Line: p.line(info.openStart), Col: p.col(info.openStart), OpenedAt: info.openStart}
			}
			endHdr, err := p.parseDirectiveHeader()
			if err != nil {
				return nil, lexer.EOF, err
			}
			p.pos = endHdr.end
			nodes = append(nodes, ast.Each{
				Iter: info.expr, Body: body,
				Pos:     ast.Pos{OpenStart: info.openStart, OpenEnd: info.end, CloseStart: endHdr.openStart, CloseEnd: endHdr.end},
				Raw:     info.raw,
				BadExpr: info.badExpr,
				ErrMsg:  info.errMsg,
			})
		case kindElse:
			if stop != nil && stop[lexer.KW_ELSE] {
				return nodes, lexer.KW_ELSE, nil
			}
			return nil, lexer.EOF, newParseError(ErrElseOutsideIf, "${#else} outside an ${#if} block", info.openStart, p.line(info.openStart), p.col(info.openStart))
		case kindEndIf:
			if stop != nil && stop[lexer.KW_ENDIF] {
				return nodes, lexer.KW_ENDIF, nil
			}
			return nil, lexer.EOF, newParseError(ErrMissingCloser, "${/if} without matching ${#if}", info.openStart, p.line(info.openStart), p.col(info.openStart))
		case kindEndEach:
			if stop != nil && stop[lexer.KW_ENDEACH] {
				return nodes, lexer.KW_ENDEACH, nil
			}
			return nil, lexer.EOF, newParseError(ErrMissingCloser, "${/each} without matching ${#each}", info.openStart, p.line(info.openStart), p.col(info.openStart))
		}
	}
}

// findNextDirectiveStart scans from p.pos for the next unescaped "${". A
// backslash-escaped "\${" is treated as literal text (the backslash is
// dropped) and scanning continues past it. Returns the index to stop
// literal emission at, and whether a real directive start was found there
// (false means end of document, index == len(src)).
func (p *parserState) findNextDirectiveStart() (int, bool) {
	from := p.pos
	for {
		rel := strings.Index(p.src[from:], "${")
		if rel < 0 {
			return len(p.src), false
		}
		idx := from + rel
		if idx > 0 && p.src[idx-1] == '\\' {
			// Escaped: leave it in the literal span (parseBlock strips the
			// backslash when it slices this range out) and keep scanning.
			from = idx + 2
			continue
		}
		return idx, true
	}
}
