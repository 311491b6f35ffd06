// Package currency is the formatting and rate-lookup collaborator. The core
// never converts between currencies; mixed-currency snapshots are
// normalized here before they reach it.
package currency

import (
	"fmt"
	"strings"
)

// DefaultCode is the currency assumed when the owner has no preference.
const DefaultCode = "PLN"

var supported = map[string]string{
	"PLN": "zł",
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "CHF",
}

// Valid reports whether the code is a supported ISO-like currency code.
func Valid(code string) bool {
	_, ok := supported[strings.ToUpper(code)]
	return ok
}

// Normalize upper-cases a code and falls back to the default for empty
// input.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCode
	}
	return code
}

// Format renders cents as a human-readable amount with the currency symbol,
// e.g. 123456 PLN -> "1234.56 zł".
func Format(cents int64, code string) string {
	code = Normalize(code)
	symbol, ok := supported[code]
	if !ok {
		symbol = code
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, symbol)
}
