package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tmplforge/doctpl/core/value"
)

func init() {
	Default.Register("date", fDate)
	Default.Register("dateTime", fDateTime)
	Default.Register("fromNow", fFromNow)
}

// Now is overridable in tests; production code always uses time.Now. This
// is the sole clock dependency in the whole formatter library — every
// other formatter is a pure function of its input, keeping renders
// deterministic given fixed input and fixed time (§5).
var Now = time.Now

// parseInput accepts an ISO-8601 date/time string or a Unix epoch
// (seconds, as a number or numeric string) per §4.E.
func parseInput(v value.Value) (time.Time, bool) {
	u, _ := value.Unwrap(v)
	switch u.Kind {
	case value.KindNumber:
		return time.Unix(int64(u.Number), 0).UTC(), true
	case value.KindString:
		s := strings.TrimSpace(u.Str)
		if s == "" {
			return time.Time{}, false
		}
		if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(epoch, 0).UTC(), true
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// translatePattern converts the spec's token pattern (YYYY, MM, DD, HH, mm,
// ss) into a Go reference-time layout.
func translatePattern(pattern string) string {
	replacer := strings.NewReplacer(
		"YYYY", "2006",
		"MM", "01",
		"DD", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	)
	return replacer.Replace(pattern)
}

func fDate(v value.Value, args []string) (value.Value, error) {
	return formatTime(v, args, "YYYY-MM-DD")
}

func fDateTime(v value.Value, args []string) (value.Value, error) {
	return formatTime(v, args, "YYYY-MM-DD HH:mm:ss")
}

func formatTime(v value.Value, args []string, defaultPattern string) (value.Value, error) {
	pattern := defaultPattern
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		pattern = args[0]
	}
	t, ok := parseInput(v)
	if !ok {
		return value.String(value.ToString(v)), nil
	}
	return value.String(t.Format(translatePattern(pattern))), nil
}

// fFromNow is the one formatter whose output depends on wall-clock time
// (§5); it is the only source of render nondeterminism besides
// `_meta.generatedAt`-style caller-injected fields.
func fFromNow(v value.Value, _ []string) (value.Value, error) {
	t, ok := parseInput(v)
	if !ok {
		return value.String(value.ToString(v)), nil
	}
	return value.String(humanize(Now().Sub(t))), nil
}

func humanize(d time.Duration) string {
	past := d >= 0
	if !past {
		d = -d
	}
	var out string
	switch {
	case d < time.Minute:
		out = "a few seconds"
	case d < 2*time.Minute:
		out = "a minute"
	case d < time.Hour:
		out = fmt.Sprintf("%d minutes", int(d/time.Minute))
	case d < 2*time.Hour:
		out = "an hour"
	case d < 24*time.Hour:
		out = fmt.Sprintf("%d hours", int(d/time.Hour))
	case d < 48*time.Hour:
		out = "a day"
	case d < 30*24*time.Hour:
		out = fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	case d < 60*24*time.Hour:
		out = "a month"
	case d < 365*24*time.Hour:
		out = fmt.Sprintf("%d months", int(d/(30*24*time.Hour)))
	default:
		years := int(d / (365 * 24 * time.Hour))
		if years <= 1 {
			out = "a year"
		} else {
			out = fmt.Sprintf("%d years", years)
		}
	}
	if past {
		return out + " ago"
	}
	return "in " + out
}
