package format

import (
	"strings"

	"github.com/tmplforge/doctpl/core/value"
)

func init() {
	Default.Register("sum", fSum)
	Default.Register("count", fCount)
	Default.Register("avg", fAvg)
	Default.Register("max", fMax)
	Default.Register("min", fMin)
}

// fieldValues resolves args[0] (a dotted path, optional) against each list
// element, falling back to the element itself when no field is given.
func fieldValues(v value.Value, args []string) []value.Value {
	u, _ := value.Unwrap(v)
	if u.Kind != value.KindList {
		return nil
	}
	var field []string
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		field = strings.Split(strings.TrimSpace(args[0]), ".")
	}
	out := make([]value.Value, 0, len(u.List))
	for _, el := range u.List {
		if len(field) == 0 {
			out = append(out, el)
			continue
		}
		cur := el
		for _, seg := range field {
			eu, _ := value.Unwrap(cur)
			if eu.Kind != value.KindRecord {
				cur = value.Null()
				break
			}
			fv, ok := eu.Record.Get(seg)
			if !ok {
				cur = value.Null()
				break
			}
			cur = fv
		}
		out = append(out, cur)
	}
	return out
}

func fSum(v value.Value, args []string) (value.Value, error) {
	vals := fieldValues(v, args)
	sum := 0.0
	for _, e := range vals {
		sum += value.ToNumber(e)
	}
	return value.Number(sum), nil
}

func fCount(v value.Value, _ []string) (value.Value, error) {
	return value.Number(float64(value.Length(v))), nil
}

func fAvg(v value.Value, args []string) (value.Value, error) {
	vals := fieldValues(v, args)
	if len(vals) == 0 {
		return value.Number(0), nil
	}
	sum := 0.0
	for _, e := range vals {
		sum += value.ToNumber(e)
	}
	return value.Number(sum / float64(len(vals))), nil
}

func fMax(v value.Value, args []string) (value.Value, error) {
	vals := fieldValues(v, args)
	if len(vals) == 0 {
		return value.Number(0), nil
	}
	best := value.ToNumber(vals[0])
	for _, e := range vals[1:] {
		if n := value.ToNumber(e); n > best {
			best = n
		}
	}
	return value.Number(best), nil
}

func fMin(v value.Value, args []string) (value.Value, error) {
	vals := fieldValues(v, args)
	if len(vals) == 0 {
		return value.Number(0), nil
	}
	best := value.ToNumber(vals[0])
	for _, e := range vals[1:] {
		if n := value.ToNumber(e); n < best {
			best = n
		}
	}
	return value.Number(best), nil
}
