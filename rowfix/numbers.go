package rowfix

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses invoice numeric text into a decimal, tolerating
// currency symbols, unit suffixes, and both 1.234,56 and 1,234.56 grouping.
// Malformed text returns (zero, false); it is never an error.
func ParseAmount(text string) (decimal.Decimal, bool) {
	var sb strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			sb.WriteRune(r)
		case r == '-' || r == '+':
			if sb.Len() == 0 {
				sb.WriteRune(r)
			}
		}
	}
	s := sb.String()
	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Zero, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// The later separator is the decimal point
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = resolveSingleSeparator(s, ",")
	case lastDot >= 0:
		s = resolveSingleSeparator(s, ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// resolveSingleSeparator decides whether a lone separator kind is a decimal
// point or thousands grouping: exactly one occurrence followed by a
// non-3-digit tail is decimal, everything else is grouping.
func resolveSingleSeparator(s, sep string) string {
	count := strings.Count(s, sep)
	tail := len(s) - strings.LastIndex(s, sep) - 1
	if count == 1 && tail != 3 {
		return strings.Replace(s, sep, ".", 1)
	}
	return strings.ReplaceAll(s, sep, "")
}
