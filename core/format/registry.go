// Package format implements the formatter library (§4.E): a registry of
// pure `(Value, args[]) -> Value` transforms applied left-to-right in a
// `${expr|f1|f2:arg}` pipe chain, plus the five styling formatters that
// wrap a value in a Style instead of transforming its text.
//
// Modeled on the teacher's runtime/decorators registry: a name-keyed map
// behind a small mutex, populated by each formatter file's own init().
package format

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/tmplforge/doctpl/core/value"
)

// Func is one formatter's implementation.
type Func func(v value.Value, args []string) (value.Value, error)

// Registry holds all registered formatters by name.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]Func
}

// Default is the registry populated by this package's init() functions; the
// executor uses it unless a caller supplies its own (e.g. tests).
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]Func)}
}

// Register adds or replaces a formatter under name.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[name] = fn
}

// Get looks up a formatter by name.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns every registered formatter name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.fns))
	for n := range r.fns {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Suggest returns the closest registered formatter name to an unknown one,
// using fuzzy rank-matching, for the validator's and executor's
// UnknownFormatter warnings. Returns "" if nothing is close enough.
func (r *Registry) Suggest(unknown string) string {
	names := r.Names()
	ranked := fuzzy.RankFindFold(unknown, names)
	if len(ranked) == 0 {
		return ""
	}
	sort.Sort(ranked)
	return ranked[0].Target
}

// IsStyling reports whether name is one of the five styling formatters,
// which wrap their input in a Style rather than transforming its text.
func IsStyling(name string) bool {
	switch name {
	case "bold", "italic", "underline", "size", "color":
		return true
	default:
		return false
	}
}

// ErrUnknownFormatter is returned by Apply for a name not in the registry;
// callers treat it as the warn-only UnknownFormatter condition (§4.E,§7):
// the value passes through unchanged.
type ErrUnknownFormatter struct {
	Name       string
	Suggestion string
}

func (e *ErrUnknownFormatter) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown formatter %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown formatter %q", e.Name)
}

// Apply runs one formatter stage by name. An unknown name returns v
// unchanged together with an *ErrUnknownFormatter so the caller can log a
// warning without aborting the pipeline.
func (r *Registry) Apply(name string, args []string, v value.Value) (value.Value, error) {
	fn, ok := r.Get(name)
	if !ok {
		return v, &ErrUnknownFormatter{Name: name, Suggestion: r.Suggest(name)}
	}
	return fn(v, args)
}
