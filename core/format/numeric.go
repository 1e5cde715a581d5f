package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tmplforge/doctpl/core/value"
)

func init() {
	Default.Register("currency", fCurrency)
	Default.Register("number", fNumber)
	Default.Register("percent", fPercent)
	Default.Register("round", fRound)
}

// currencySymbols is intentionally not an allow-list: any ISO code is
// accepted (§4.E), with a symbol table for the common ones and a
// "<CODE> " prefix fallback for anything else. The validator does not
// check currency codes at all.
var currencySymbols = map[string]string{
	"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥",
	"CAD": "CA$", "AUD": "A$", "CHF": "CHF ", "CNY": "¥",
	"INR": "₹", "BRL": "R$", "MXN": "MX$", "KRW": "₩",
}

// fCurrency formats a locale-neutral currency string: grouped thousands,
// two decimal places, symbol (or "<CODE> ") prefix (§4.E).
func fCurrency(v value.Value, args []string) (value.Value, error) {
	code := "USD"
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		code = strings.ToUpper(strings.TrimSpace(args[0]))
	}
	n := value.ToNumber(v)
	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code + " "
	}
	neg := n < 0
	if neg {
		n = -n
	}
	grouped := groupThousands(fmt.Sprintf("%.2f", n))
	sign := ""
	if neg {
		sign = "-"
	}
	return value.String(sign + symbol + grouped), nil
}

// groupThousands inserts ',' separators into the integer part of a decimal
// string already formatted with exactly two fraction digits.
func groupThousands(s string) string {
	dot := strings.IndexByte(s, '.')
	intPart, frac := s, ""
	if dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	n := len(intPart)
	if n <= 3 {
		return intPart + frac
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if n > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < n; i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < n {
			b.WriteByte(',')
		}
	}
	return b.String() + frac
}

// fNumber implements `number:decimals` (default 2): fixed-point formatting.
func fNumber(v value.Value, args []string) (value.Value, error) {
	decimals := 2
	if len(args) > 0 {
		if d, err := strconv.Atoi(strings.TrimSpace(args[0])); err == nil {
			decimals = d
		}
	}
	n := value.ToNumber(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return value.String(value.ToString(value.Number(n))), nil
	}
	return value.String(strconv.FormatFloat(n, 'f', decimals, 64)), nil
}

// fPercent multiplies by 100, formats to two decimals, appends "%" (§4.E).
func fPercent(v value.Value, _ []string) (value.Value, error) {
	n := value.ToNumber(v)
	if math.IsNaN(n) {
		return value.String("NaN%"), nil
	}
	return value.String(strconv.FormatFloat(n*100, 'f', 2, 64) + "%"), nil
}

// fRound implements `round:places` (default 0), half-away-from-zero.
func fRound(v value.Value, args []string) (value.Value, error) {
	places := 0
	if len(args) > 0 {
		if p, err := strconv.Atoi(strings.TrimSpace(args[0])); err == nil {
			places = p
		}
	}
	n := value.ToNumber(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return value.Number(n), nil
	}
	factor := math.Pow(10, float64(places))
	scaled := n * factor
	var rounded float64
	if scaled >= 0 {
		rounded = math.Floor(scaled + 0.5)
	} else {
		rounded = math.Ceil(scaled - 0.5)
	}
	return value.Number(rounded / factor), nil
}
