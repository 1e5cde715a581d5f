package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmplforge/doctpl/runtime/validate"
)

func TestValidate_CountsDirectiveKinds(t *testing.T) {
	rep := validate.Validate("${#each items}${this}${#if this.active}${label|upper}${/if}${/each}")
	require.True(t, rep.Valid)
	assert.Equal(t, 1, rep.Statistics.Loops)
	assert.Equal(t, 1, rep.Statistics.Ifs)
	assert.Equal(t, 2, rep.Statistics.Vars) // ${this} and ${label|upper}
	assert.Len(t, rep.Locations, 4)         // each, this, if, label|upper
}

func TestValidate_DoesNotWalkChildrenOfBadExprIf(t *testing.T) {
	rep := validate.Validate("${#if (}${inner}${/if}")
	require.True(t, rep.Valid)
	// Only the #if header itself is a location: the executor never
	// evaluates a BadExpr node's branches, so the validator must not
	// report the nested ${inner} as a visited location either.
	assert.Len(t, rep.Locations, 1)
	assert.Equal(t, 0, rep.Statistics.Vars)
}

func TestValidate_DoesNotWalkChildrenOfBadExprEach(t *testing.T) {
	rep := validate.Validate("${#each (}${inner}${/each}")
	require.True(t, rep.Valid)
	assert.Len(t, rep.Locations, 1)
	assert.Equal(t, 0, rep.Statistics.Vars)
}

func TestValidate_NestedLoopsCountedSeparately(t *testing.T) {
	rep := validate.Validate("${#each a}${#each this.b}${this}${/each}${/each}")
	require.True(t, rep.Valid)
	assert.Equal(t, 2, rep.Statistics.Loops)
	assert.Equal(t, 1, rep.Statistics.NestedLoops)
}

func TestValidate_ComplexityScoreMatchesFormula(t *testing.T) {
	rep := validate.Validate("${#each a}${#each this.b}${#if this.c}${x|bold}${/if}${/each}${/each}")
	require.True(t, rep.Valid)
	stats := rep.Statistics
	want := 1*stats.Vars + 3*stats.Ifs + 5*stats.Loops + 10*stats.NestedLoops + 4*stats.Aggregates + 2*stats.Stylings
	assert.Equal(t, want, stats.ComplexityScore())
}

func TestValidate_FlagsUnknownFormatterWithSuggestion(t *testing.T) {
	rep := validate.Validate("${name|uper}")
	require.True(t, rep.Valid)
	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, "unknown_formatter", rep.Warnings[0].Kind)
	assert.Equal(t, "upper", rep.Warnings[0].Suggestion)
}

func TestValidate_UnbalancedParenIsAnError(t *testing.T) {
	rep := validate.Validate("${#if (a && b}x${/if}")
	assert.False(t, rep.Valid)
	assert.NotEmpty(t, rep.Errors)
}

func TestValidate_AggregateFormatterCounted(t *testing.T) {
	rep := validate.Validate("${items|sum:price}")
	require.True(t, rep.Valid)
	assert.Equal(t, 1, rep.Statistics.Aggregates)
}

func TestValidate_EngineCompatCommentWithinRangeProducesNoWarning(t *testing.T) {
	rep := validate.Validate(`<!--doctpl:engine ">=0.1.0"-->${x}`)
	require.True(t, rep.Valid)
	for _, w := range rep.Warnings {
		assert.NotEqual(t, "engine_compat", w.Kind)
	}
}

func TestValidate_EngineCompatCommentOutOfRangeWarns(t *testing.T) {
	rep := validate.Validate(`<!--doctpl:engine ">=99.0.0"-->${x}`)
	require.True(t, rep.Valid)
	found := false
	for _, w := range rep.Warnings {
		if w.Kind == "engine_compat" {
			found = true
		}
	}
	assert.True(t, found)
}
