package value_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"github.com/tmplforge/doctpl/core/value"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    value.Value
		want bool
	}{
		{"null", value.Null(), false},
		{"false", value.Bool(false), false},
		{"true", value.Bool(true), true},
		{"zero", value.Number(0), false},
		{"nonzero", value.Number(-1), true},
		{"empty string", value.String(""), false},
		{"nonempty string", value.String("x"), true},
		{"empty list", value.List(nil), false},
		{"nonempty list", value.List([]value.Value{value.Null()}), true},
		{"empty record", value.RecordOf(value.NewRecord()), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, value.Truthy(c.v))
		})
	}
}

func TestToNumber(t *testing.T) {
	assert.Equal(t, 42.0, value.ToNumber(value.Number(42)))
	assert.Equal(t, 1.0, value.ToNumber(value.Bool(true)))
	assert.Equal(t, 0.0, value.ToNumber(value.Bool(false)))
	assert.Equal(t, 3.5, value.ToNumber(value.String(" 3.5 ")))
	assert.True(t, math.IsNaN(value.ToNumber(value.String("abc"))))
	assert.Equal(t, 0.0, value.ToNumber(value.Null()))
}

func TestWeakEqual_NumericCoercion(t *testing.T) {
	assert.True(t, value.WeakEqual(value.Number(1), value.String("1")))
	assert.True(t, value.WeakEqual(value.Number(1), value.Bool(true)))
	assert.False(t, value.WeakEqual(value.Number(1), value.String("x")))
}

func TestWeakEqual_ListAndRecord(t *testing.T) {
	a := value.List([]value.Value{value.Number(1), value.String("x")})
	b := value.List([]value.Value{value.Number(1), value.String("x")})
	assert.True(t, value.WeakEqual(a, b))

	ra := value.NewRecord()
	ra.Set("k", value.Number(1))
	rb := value.NewRecord()
	rb.Set("k", value.String("1"))
	assert.True(t, value.WeakEqual(value.RecordOf(ra), value.RecordOf(rb)))
}

func TestStrictEqual_NumberIdentityNotCoercion(t *testing.T) {
	assert.False(t, value.StrictEqual(value.Number(1), value.String("1")))
	assert.True(t, value.StrictEqual(value.Number(1), value.Number(1)))
}

func TestStrictEqual_NaNNeverEqualsNaN(t *testing.T) {
	nan := value.Number(math.NaN())
	assert.False(t, value.StrictEqual(nan, nan))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", value.ToString(value.Null()))
	assert.Equal(t, "true", value.ToString(value.Bool(true)))
	assert.Equal(t, "42", value.ToString(value.Number(42)))
	assert.Equal(t, "3.5", value.ToString(value.Number(3.5)))
	assert.Equal(t, "NaN", value.ToString(value.Number(math.NaN())))
	assert.Equal(t, "Infinity", value.ToString(value.Number(math.Inf(1))))
	assert.Equal(t, "a, b", value.ToString(value.List([]value.Value{value.String("a"), value.String("b")})))
}

func TestStyled_RepeatedStylingMerges(t *testing.T) {
	v := value.String("x")
	bolded := value.Styled(v, value.Style{Bold: true})
	sized := value.Styled(bolded, value.Style{SizePt: 14})

	assert.Equal(t, value.KindStyled, sized.Kind)
	inner, style := value.Unwrap(sized)

	want := value.Style{Bold: true, SizePt: 14}
	if diff := cmp.Diff(want, style, cmpopts.IgnoreFields(value.Style{}, "Color")); diff != "" {
		t.Errorf("merged style mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "x", value.ToString(inner))
}

func TestRecord_PreservesInsertionOrder(t *testing.T) {
	r := value.NewRecord()
	r.Set("z", value.Number(1))
	r.Set("a", value.Number(2))
	r.Set("z", value.Number(3)) // overwrite, should not move position
	assert.Equal(t, []string{"z", "a"}, r.Keys())
	v, ok := r.Get("z")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v.Number)
}

func TestLength(t *testing.T) {
	assert.Equal(t, 3, value.Length(value.String("abc")))
	assert.Equal(t, 2, value.Length(value.List([]value.Value{value.Null(), value.Null()})))
	assert.Equal(t, 0, value.Length(value.Number(5)))
}
