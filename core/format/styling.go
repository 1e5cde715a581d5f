package format

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tmplforge/doctpl/core/value"
)

func init() {
	Default.Register("bold", fBold)
	Default.Register("italic", fItalic)
	Default.Register("underline", fUnderline)
	Default.Register("size", fSize)
	Default.Register("color", fColor)
}

func fBold(v value.Value, _ []string) (value.Value, error) {
	return value.Styled(v, value.Style{Bold: true}), nil
}

func fItalic(v value.Value, _ []string) (value.Value, error) {
	return value.Styled(v, value.Style{Italic: true}), nil
}

func fUnderline(v value.Value, _ []string) (value.Value, error) {
	return value.Styled(v, value.Style{Underline: true}), nil
}

// fSize implements `size:n`, clamped to the documented 1..72 range.
func fSize(v value.Value, args []string) (value.Value, error) {
	n := 12
	if len(args) > 0 {
		if parsed, err := strconv.Atoi(strings.TrimSpace(args[0])); err == nil {
			n = parsed
		}
	}
	if n < 1 {
		n = 1
	}
	if n > 72 {
		n = 72
	}
	return value.Styled(v, value.Style{SizePt: n}), nil
}

var hexColorRe = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

var namedColors = map[string]string{
	"red": "FF0000", "green": "008000", "blue": "0000FF",
	"black": "000000", "white": "FFFFFF", "yellow": "FFFF00",
	"orange": "FFA500", "purple": "800080", "gray": "808080", "grey": "808080",
}

// fColor implements `color:name-or-6hex`. An unrecognized name falls back
// to black rather than failing the whole directive — styling is cosmetic.
func fColor(v value.Value, args []string) (value.Value, error) {
	raw := "black"
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		raw = strings.TrimSpace(args[0])
	}
	hex := strings.TrimPrefix(raw, "#")
	if hexColorRe.MatchString(hex) {
		return value.Styled(v, value.Style{Color: strings.ToUpper(hex)}), nil
	}
	if named, ok := namedColors[strings.ToLower(raw)]; ok {
		return value.Styled(v, value.Style{Color: named}), nil
	}
	return value.Styled(v, value.Style{Color: "000000"}), nil
}
