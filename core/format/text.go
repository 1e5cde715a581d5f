package format

import (
	"strconv"
	"strings"

	"github.com/tmplforge/doctpl/core/value"
)

func init() {
	Default.Register("upper", fUpper)
	Default.Register("lower", fLower)
	Default.Register("capitalize", fCapitalize)
	Default.Register("trim", fTrim)
	Default.Register("truncate", fTruncate)
	Default.Register("default", fDefault)
	Default.Register("escape", fEscape)
	Default.Register("join", fJoin)
	Default.Register("length", fLength)
}

func fUpper(v value.Value, _ []string) (value.Value, error) {
	return value.String(strings.ToUpper(value.ToString(v))), nil
}

func fLower(v value.Value, _ []string) (value.Value, error) {
	return value.String(strings.ToLower(value.ToString(v))), nil
}

func fCapitalize(v value.Value, _ []string) (value.Value, error) {
	s := value.ToString(v)
	if s == "" {
		return value.String(s), nil
	}
	r := []rune(s)
	return value.String(strings.ToUpper(string(r[0])) + string(r[1:])), nil
}

func fTrim(v value.Value, _ []string) (value.Value, error) {
	return value.String(strings.TrimSpace(value.ToString(v))), nil
}

// fTruncate implements `truncate:n` (default 50): cut and append an
// ellipsis when the string exceeds n runes.
func fTruncate(v value.Value, args []string) (value.Value, error) {
	n := 50
	if len(args) > 0 {
		if parsed, err := strconv.Atoi(strings.TrimSpace(args[0])); err == nil {
			n = parsed
		}
	}
	s := value.ToString(v)
	r := []rune(s)
	if len(r) <= n {
		return value.String(s), nil
	}
	if n < 0 {
		n = 0
	}
	return value.String(string(r[:n]) + "..."), nil
}

// fDefault substitutes args[0] when v is Null or an empty string/list
// (§4.E: "substitute when Null/empty").
func fDefault(v value.Value, args []string) (value.Value, error) {
	alt := ""
	if len(args) > 0 {
		alt = args[0]
	}
	u, _ := value.Unwrap(v)
	switch u.Kind {
	case value.KindNull:
		return value.String(alt), nil
	case value.KindString:
		if u.Str == "" {
			return value.String(alt), nil
		}
	case value.KindList:
		if len(u.List) == 0 {
			return value.String(alt), nil
		}
	}
	return v, nil
}

func fEscape(v value.Value, _ []string) (value.Value, error) {
	return value.String(xmlEscape(value.ToString(v))), nil
}

func xmlEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// XMLEscape is exported for use by core/exec when escaping the final
// emitted text, keeping a single implementation of the escaping rule.
func XMLEscape(s string) string { return xmlEscape(s) }

func fJoin(v value.Value, args []string) (value.Value, error) {
	sep := ", "
	if len(args) > 0 {
		sep = args[0]
	}
	u, _ := value.Unwrap(v)
	if u.Kind != value.KindList {
		return value.String(value.ToString(v)), nil
	}
	parts := make([]string, len(u.List))
	for i, e := range u.List {
		parts[i] = value.ToString(e)
	}
	return value.String(strings.Join(parts, sep)), nil
}

func fLength(v value.Value, _ []string) (value.Value, error) {
	return value.Number(float64(value.Length(v))), nil
}
