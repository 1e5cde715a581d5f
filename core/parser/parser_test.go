package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmplforge/doctpl/core/ast"
	"github.com/tmplforge/doctpl/core/parser"
)

func TestParse_PlainTextIsOneLiteral(t *testing.T) {
	nodes, err := parser.Parse("hello world")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	lit, ok := nodes[0].(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "hello world", lit.Span)
}

func TestParse_SimpleInterpolation(t *testing.T) {
	nodes, err := parser.Parse("Hi ${name}!")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "Hi ", nodes[0].(ast.Literal).Span)
	interp, ok := nodes[1].(ast.Interp)
	require.True(t, ok)
	assert.False(t, interp.BadExpr)
	assert.Equal(t, "!", nodes[2].(ast.Literal).Span)
}

func TestParse_EscapedDollarBraceIsLiteral(t *testing.T) {
	nodes, err := parser.Parse(`price: \${5}`)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "price: ${5}", nodes[0].(ast.Literal).Span)
}

func TestParse_IfElseEndif(t *testing.T) {
	nodes, err := parser.Parse("${#if this.active}yes${#else}no${/if}")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	ifNode, ok := nodes[0].(ast.If)
	require.True(t, ok)
	require.Len(t, ifNode.Then, 1)
	require.Len(t, ifNode.Else, 1)
	assert.Equal(t, "yes", ifNode.Then[0].(ast.Literal).Span)
	assert.Equal(t, "no", ifNode.Else[0].(ast.Literal).Span)
}

func TestParse_IfWithoutElse(t *testing.T) {
	nodes, err := parser.Parse("${#if x}y${/if}")
	require.NoError(t, err)
	ifNode := nodes[0].(ast.If)
	assert.Nil(t, ifNode.Else)
}

func TestParse_IfWithSymbolicOrAndIsNotBadExpr(t *testing.T) {
	nodes, err := parser.Parse("${#if a || b}y${/if}")
	require.NoError(t, err)
	ifNode := nodes[0].(ast.If)
	assert.False(t, ifNode.BadExpr, ifNode.ErrMsg)
	bin, ok := ifNode.Cond.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "||", bin.Op)
}

func TestParse_IfWithSymbolicAndIsNotBadExpr(t *testing.T) {
	nodes, err := parser.Parse("${#if a && b}y${/if}")
	require.NoError(t, err)
	ifNode := nodes[0].(ast.If)
	assert.False(t, ifNode.BadExpr, ifNode.ErrMsg)
	bin, ok := ifNode.Cond.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "&&", bin.Op)
}

func TestParse_EachLoop(t *testing.T) {
	nodes, err := parser.Parse("${#each items}-${this}${/each}")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	each, ok := nodes[0].(ast.Each)
	require.True(t, ok)
	require.Len(t, each.Body, 2)
}

func TestParse_NestedEach(t *testing.T) {
	nodes, err := parser.Parse("${#each outer}${#each this.inner}${this}${/each}${/each}")
	require.NoError(t, err)
	outer := nodes[0].(ast.Each)
	require.Len(t, outer.Body, 1)
	_, ok := outer.Body[0].(ast.Each)
	assert.True(t, ok)
}

func TestParse_UnterminatedEachIsParseError(t *testing.T) {
	_, err := parser.Parse("${#each items}no closer")
	require.Error(t, err)
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, parser.ErrMissingCloser, perr.Kind)
}

func TestParse_UnterminatedDirectiveAtEOF(t *testing.T) {
	_, err := parser.Parse("${name")
	require.Error(t, err)
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, parser.ErrUnterminatedDirective, perr.Kind)
}

func TestParse_ElseOutsideIfIsParseError(t *testing.T) {
	_, err := parser.Parse("${#else}x${/if}")
	require.Error(t, err)
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, parser.ErrElseOutsideIf, perr.Kind)
}

func TestParse_EndifWithoutIfIsParseError(t *testing.T) {
	_, err := parser.Parse("x${/if}")
	require.Error(t, err)
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, parser.ErrMissingCloser, perr.Kind)
}

func TestParse_FormatterPipeline(t *testing.T) {
	nodes, err := parser.Parse("${amount | currency:USD | upper}")
	require.NoError(t, err)
	interp := nodes[0].(ast.Interp)
	require.Len(t, interp.Formatters, 2)
	assert.Equal(t, "currency", interp.Formatters[0].Name)
	assert.Equal(t, []string{"USD"}, interp.Formatters[0].Args)
	assert.Equal(t, "upper", interp.Formatters[1].Name)
}
