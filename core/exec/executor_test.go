package exec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmplforge/doctpl/core/exec"
	"github.com/tmplforge/doctpl/core/parser"
	"github.com/tmplforge/doctpl/core/value"
)

func run(t *testing.T, src string, data value.Value) exec.Result {
	t.Helper()
	nodes, err := parser.Parse(src)
	require.NoError(t, err)
	return exec.Execute(nodes, data, exec.Options{})
}

func recordOf(pairs ...interface{}) value.Value {
	r := value.NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return value.RecordOf(r)
}

func TestExecute_PlainInterpolation(t *testing.T) {
	res := run(t, "Hello ${name}!", recordOf("name", value.String("World")))
	assert.Equal(t, "Hello World!", res.Output)
	assert.Empty(t, res.Warnings)
}

func TestExecute_EscapesXMLInValues(t *testing.T) {
	res := run(t, "${x}", recordOf("x", value.String("<a> & \"b\"")))
	assert.Equal(t, "&lt;a&gt; &amp; &quot;b&quot;", res.Output)
}

func TestExecute_FormatterPipeline(t *testing.T) {
	res := run(t, "${price|currency:EUR}", recordOf("price", value.Number(1234.5)))
	assert.Equal(t, "€1,234.50", res.Output)
}

func TestExecute_UnknownFormatterPassesValueThroughAndWarns(t *testing.T) {
	res := run(t, "${name|yell}", recordOf("name", value.String("hi")))
	assert.Equal(t, "hi", res.Output)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "unknown_formatter", res.Warnings[0].Kind)
}

func TestExecute_IfTrueBranch(t *testing.T) {
	res := run(t, "${#if active}yes${#else}no${/if}", recordOf("active", value.Bool(true)))
	assert.Equal(t, "yes", res.Output)
}

func TestExecute_IfFalseBranchNoElse(t *testing.T) {
	res := run(t, "before${#if active}yes${/if}after", recordOf("active", value.Bool(false)))
	assert.Equal(t, "beforeafter", res.Output)
}

func TestExecute_EachConcatenatesIterationsWithNoSeparator(t *testing.T) {
	items := value.List([]value.Value{value.String("a"), value.String("b"), value.String("c")})
	res := run(t, "${#each items}${this}${/each}", recordOf("items", items))
	assert.Equal(t, "abc", res.Output)
}

func TestExecute_EachExposesIndexFirstLastCount(t *testing.T) {
	items := value.List([]value.Value{value.String("x"), value.String("y")})
	res := run(t, "${#each items}${index}:${first}:${last}:${count};${/each}", recordOf("items", items))
	assert.Equal(t, "0:true:false:2;1:false:true:2;", res.Output)
}

func TestExecute_EachOnNonListEmitsEmptyAndWarns(t *testing.T) {
	res := run(t, "${#each items}x${/each}", recordOf("items", value.Number(5)))
	assert.Equal(t, "", res.Output)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "not_iterable", res.Warnings[0].Kind)
}

func TestExecute_NestedLoopsUseInnermostThis(t *testing.T) {
	inner := value.List([]value.Value{value.String("1"), value.String("2")})
	outer := value.List([]value.Value{
		recordOf("label", value.String("A"), "children", inner),
		recordOf("label", value.String("B"), "children", inner),
	})
	res := run(t, "${#each rows}${this.label}[${#each this.children}${this}${/each}]${/each}", recordOf("rows", outer))
	assert.Equal(t, "A[12]B[12]", res.Output)
}

func TestExecute_ParentScopeAccessibleInsideLoop(t *testing.T) {
	items := value.List([]value.Value{value.String("child")})
	data := recordOf("label", value.String("root"), "items", items)
	res := run(t, "${#each items}${this}-${parent.label}${/each}", data)
	assert.Equal(t, "child-root", res.Output)
}

func TestExecute_BadExpressionEmitsDiagnosticPlaceholder(t *testing.T) {
	res := run(t, "${({}).toString()}", recordOf())
	assert.Equal(t, "[ERROR: ({}).toString()]", res.Output)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "bad_expression", res.Warnings[0].Kind)
}

func TestExecute_StylingFormatterDefaultsToFlatten(t *testing.T) {
	res := run(t, "${name|bold}", recordOf("name", value.String("hi")))
	assert.Equal(t, "hi", res.Output)
}

func TestExecute_StylingFormatterRunProps(t *testing.T) {
	nodes, err := parser.Parse("${name|bold|color:FF0000}")
	require.NoError(t, err)
	res := exec.Execute(nodes, recordOf("name", value.String("hi")), exec.Options{StylingEmit: exec.StylingRunProps})
	assert.Contains(t, res.Output, "<w:b/>")
	assert.Contains(t, res.Output, `<w:color w:val="FF0000"/>`)
	assert.Contains(t, res.Output, "<w:t xml:space=\"preserve\">hi</w:t>")
}

func TestExecute_EmptyDataProducesLiteralTextUnchanged(t *testing.T) {
	res := run(t, "Hello World, no directives here.", recordOf())
	assert.Equal(t, "Hello World, no directives here.", res.Output)
	assert.Empty(t, res.Warnings)
}
