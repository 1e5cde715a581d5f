package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmplforge/doctpl/core/scope"
	"github.com/tmplforge/doctpl/core/value"
)

func record(pairs ...interface{}) value.Value {
	r := value.NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return value.RecordOf(r)
}

func TestLookup_ResolvesFromRootWhenNoFrameShadows(t *testing.T) {
	root := scope.NewRoot(record("name", value.String("Ann")))
	assert.Equal(t, "Ann", value.ToString(root.Lookup([]string{"name"})))
}

func TestLookup_MissingKeyShortCircuitsToNull(t *testing.T) {
	root := scope.NewRoot(record("name", value.String("Ann")))
	assert.True(t, value.IsNull(root.Lookup([]string{"missing", "deeper"})))
}

func TestPush_ExposesIterationVars(t *testing.T) {
	root := scope.NewRoot(value.Null())
	child := root.Push(value.String("x"), 1, 3)

	idx, ok := child.LookupIterationVar("index")
	assert.True(t, ok)
	assert.Equal(t, 1.0, idx.Number)

	first, _ := child.LookupIterationVar("first")
	assert.False(t, first.Bool)
	last, _ := child.LookupIterationVar("last")
	assert.False(t, last.Bool)
	count, _ := child.LookupIterationVar("count")
	assert.Equal(t, 3.0, count.Number)
}

func TestPush_FirstAndLastFlags(t *testing.T) {
	root := scope.NewRoot(value.Null())
	first := root.Push(value.Number(0), 0, 2)
	v, _ := first.LookupIterationVar("first")
	assert.True(t, v.Bool)

	last := root.Push(value.Number(1), 1, 2)
	v, _ = last.LookupIterationVar("last")
	assert.True(t, v.Bool)
}

func TestLookupThis_TargetsInnermostFrameOnly(t *testing.T) {
	root := scope.NewRoot(record("name", value.String("outer")))
	child := root.Push(record("name", value.String("inner")), 0, 1)
	assert.Equal(t, "inner", value.ToString(child.LookupThis([]string{"name"})))
}

func TestLookupIterationVar_ParentReturnsEnclosingThis(t *testing.T) {
	root := scope.NewRoot(value.Null())
	outer := root.Push(record("name", value.String("outer-item")), 0, 1)
	inner := outer.Push(record("name", value.String("inner-item")), 0, 1)

	parent, ok := inner.LookupIterationVar("parent")
	assert.True(t, ok)
	u, _ := value.Unwrap(parent)
	name, _ := u.Record.Get("name")
	assert.Equal(t, "outer-item", value.ToString(name))
}

func TestLookupIterationVar_ParentAtRootIsAbsent(t *testing.T) {
	root := scope.NewRoot(value.Null())
	_, ok := root.LookupIterationVar("parent")
	assert.False(t, ok)
}

func TestRoot_ReturnsOriginalDataFromAnyDepth(t *testing.T) {
	data := record("users", value.List(nil))
	root := scope.NewRoot(data)
	child := root.Push(value.Null(), 0, 1).Push(value.Null(), 0, 1)
	assert.Equal(t, data, child.Root())
}

func TestIndex_OutOfRangeIsNull(t *testing.T) {
	l := value.List([]value.Value{value.Number(1), value.Number(2)})
	assert.True(t, value.IsNull(scope.Index(l, 5)))
	assert.True(t, value.IsNull(scope.Index(l, -1)))
	assert.Equal(t, 2.0, scope.Index(l, 1).Number)
}
