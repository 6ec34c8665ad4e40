package money

import (
	"math"
	"strconv"
	"strings"
)

// Format renders a value with Brazilian separators at display precision:
// dot for thousands, comma for decimals, always two fractional digits.
// Example: 1234567.5 -> "1.234.567,50".
func Format(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(s) + len(intPart)/3 + 1)
	if neg {
		b.WriteByte('-')
	}

	rem := len(intPart) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(intPart[:rem])
	for i := rem; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}

	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// FormatBRL prefixes the currency symbol: "R$ 1.234,56".
func FormatBRL(v float64) string {
	return "R$ " + Format(v)
}
