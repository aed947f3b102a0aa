package latex

import (
	"fmt"
	"strconv"
	"strings"
)

// NotAvailable stands in for a solution the solver could not produce.
const NotAvailable = "N/A"

// DefaultUnitSymbol is shown when no unit was configured.
const DefaultUnitSymbol = "u"

// FormatSolution renders "<exact> = <decimal> \ <units>". A missing exact value
// or decimal yields NotAvailable.
func FormatSolution(exact string, decimal *float64, units string, precision int) string {
	if exact == "" || decimal == nil {
		return NotAvailable
	}
	return fmt.Sprintf(`%s = %s \ %s`, FormatExactSolution(exact), FormatDecimal(*decimal, precision), FormatUnits(units))
}

// FormatSolutionUnitless is FormatSolution for quantities whose dimension is unknown.
func FormatSolutionUnitless(exact string, decimal *float64, precision int) string {
	if exact == "" || decimal == nil {
		return NotAvailable
	}
	return FormatExactSolution(exact) + " = " + FormatDecimal(*decimal, precision)
}

// FormatDecimal prints v in fixed-point notation with exactly precision digits.
func FormatDecimal(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if isNegativeZero(s) {
		s = s[1:]
	}
	return s
}

func isNegativeZero(s string) bool {
	return strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == ""
}

// FormatUnits wraps a unit in \text{}. "u^2" becomes \text{u}^{2}, an empty
// unit becomes the generic \text{u}.
func FormatUnits(units string) string {
	units = strings.TrimSpace(units)
	if units == "" {
		return `\text{` + DefaultUnitSymbol + `}`
	}
	if base, exp, ok := strings.Cut(units, "^"); ok {
		exp = strings.TrimSuffix(strings.TrimPrefix(exp, "{"), "}")
		return `\text{` + base + `}^{` + exp + `}`
	}
	return `\text{` + units + `}`
}
