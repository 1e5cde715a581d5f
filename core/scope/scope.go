// Package scope implements the lexical scope chain described in §3: a
// stack of bindings rooted at the caller's data object, with one frame
// pushed per #each iteration.
package scope

import "github.com/tmplforge/doctpl/core/value"

// Frame is one level of the scope chain. The root frame wraps the
// caller's data object; each #each iteration pushes a child frame with
// `this`, `index`, `first`, `last`, `count` and a pointer to the parent.
type Frame struct {
	parent *Frame
	this   value.Value
	vars   map[string]value.Value // index, first, last, count
	isRoot bool
	root   value.Value // only set on the root frame: the original data object
}

// NewRoot builds the bottom frame holding the caller's data object.
func NewRoot(data value.Value) *Frame {
	return &Frame{isRoot: true, this: data, root: data}
}

// Push creates a child frame for one #each iteration. `parent.*` lookups
// from inside the new frame resolve against f's own `this`.
func (f *Frame) Push(this value.Value, index, count int) *Frame {
	child := &Frame{
		parent: f,
		this:   this,
		vars: map[string]value.Value{
			"index": value.Number(float64(index)),
			"first": value.Bool(index == 0),
			"last":  value.Bool(index == count-1),
			"count": value.Number(float64(count)),
		},
	}
	return child
}

// Parent returns the enclosing frame, or nil at the root.
func (f *Frame) Parent() *Frame {
	return f.parent
}

// This returns the frame's own `this` binding.
func (f *Frame) This() value.Value {
	return f.this
}

// Root returns the original caller-supplied data object from the bottom
// of the chain. Lookup does not call it: it reaches the root frame's data
// by walking the chain itself.
func (f *Frame) Root() value.Value {
	cur := f
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur.root
}

// LookupThis resolves `this` dotted paths explicitly from the innermost
// frame only, per §3's "this.foo explicitly targets the innermost this".
func (f *Frame) LookupThis(path []string) value.Value {
	return walkPath(f.this, path)
}

// LookupIterationVar resolves one of the automatic loop variables
// (index, first, last, count) or `parent`, searching top-down starting at
// f. parent returns the enclosing frame's `this`.
func (f *Frame) LookupIterationVar(name string) (value.Value, bool) {
	if name == "parent" {
		if f.parent == nil {
			return value.Null(), false
		}
		return f.parent.this, true
	}
	for cur := f; cur != nil; cur = cur.parent {
		if cur.vars != nil {
			if v, ok := cur.vars[name]; ok {
				return v, true
			}
		}
	}
	return value.Null(), false
}

// Lookup resolves a bare identifier path. It searches frames top-down for
// the first frame exposing the leading name: first the automatic
// iteration variables (index/first/last/count/parent), then each frame's
// `this` record for a matching key, and finally falls back to the root
// data object. Missing steps at any point short-circuit to Null.
func (f *Frame) Lookup(path []string) value.Value {
	if len(path) == 0 {
		return value.Null()
	}
	head := path[0]

	if v, ok := f.LookupIterationVar(head); ok {
		return walkPath(v, path[1:])
	}

	for cur := f; cur != nil; cur = cur.parent {
		u, _ := value.Unwrap(cur.this)
		if u.Kind == value.KindRecord {
			if v, ok := u.Record.Get(head); ok {
				return walkPath(v, path[1:])
			}
		}
	}

	return value.Null()
}

// walkPath descends v through the remaining record-key segments,
// short-circuiting to Null on a missing key or on any step into a value
// that is not a record (lists are indexed through Index, not here).
func walkPath(v value.Value, path []string) value.Value {
	cur := v
	for _, seg := range path {
		u, _ := value.Unwrap(cur)
		switch u.Kind {
		case value.KindRecord:
			nv, ok := u.Record.Get(seg)
			if !ok {
				return value.Null()
			}
			cur = nv
		default:
			return value.Null()
		}
	}
	return cur
}

// Index descends into a list element by integer index, short-circuiting to
// Null when out of range or not a list.
func Index(v value.Value, i int) value.Value {
	u, _ := value.Unwrap(v)
	if u.Kind != value.KindList {
		return value.Null()
	}
	if i < 0 || i >= len(u.List) {
		return value.Null()
	}
	return u.List[i]
}
