package invariant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmplforge/doctpl/core/invariant"
)

func TestPrecondition_PassesSilently(t *testing.T) {
	assert.NotPanics(t, func() {
		invariant.Precondition(true, "unused")
	})
}

func TestPrecondition_PanicsOnViolation(t *testing.T) {
	assert.PanicsWithValue(t, "PRECONDITION VIOLATION: x must be 1, got 2", func() {
		invariant.Precondition(false, "x must be 1, got %d", 2)
	})
}

func TestPostcondition_PanicsOnViolation(t *testing.T) {
	assert.Panics(t, func() {
		invariant.Postcondition(false, "bad output")
	})
}

func TestInvariant_PanicsOnViolation(t *testing.T) {
	assert.Panics(t, func() {
		invariant.Invariant(false, "loop did not progress")
	})
}

func TestNotNil_PanicsOnNilInterface(t *testing.T) {
	assert.Panics(t, func() {
		invariant.NotNil(nil, "frame")
	})
}

func TestNotNil_PassesOnNonNil(t *testing.T) {
	assert.NotPanics(t, func() {
		invariant.NotNil(42, "frame")
	})
}
