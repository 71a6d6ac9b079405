package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMalformedNumber = errors.New("malformed number")

// ParseMoney normalizes a broker-formatted numeric string into an exact
// decimal. It tolerates a leading currency symbol, thousands separators,
// surrounding whitespace and accounting-style parentheses for negatives:
//
//	"$59.86"    ->  59.86
//	"($69.13)"  -> -69.13
//	"1,234.50"  ->  1234.50
//
// Anything left over that is not a valid decimal numeral fails with
// ErrMalformedNumber. The result is never a binary float; it feeds the
// financial aggregation pipeline unchanged.
func ParseMoney(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)

	negated := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negated = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	s = strings.ReplaceAll(s, ",", "")

	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMalformedNumber, raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMalformedNumber, raw)
	}
	if negated {
		d = d.Neg()
	}
	return d, nil
}
