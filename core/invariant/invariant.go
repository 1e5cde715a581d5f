// Package invariant provides contract assertions for doctpl.
//
// Assertions here are a force multiplier for discovering bugs in the parser,
// evaluator and executor: they turn silent miscompilation of a template into
// an immediate panic with a precise message. Use Precondition/Postcondition
// to express function contracts and Invariant for internal consistency
// checks such as loop progress or scope-stack balance.
//
// All functions panic on violation — these are programming errors in this
// engine, never user input errors. User-facing failures go through the
// typed errors in core/eval, core/parser, and runtime/archive instead.
package invariant

import "fmt"

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil. A precondition check for pointer/interface
// arguments that must never be nil by construction.
func NotNil(value interface{}, name string) {
	if value == nil {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func fail(kind, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	panic(fmt.Sprintf("%s VIOLATION: %s", kind, msg))
}
