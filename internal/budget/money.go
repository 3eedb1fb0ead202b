package budget

import (
	"fmt"
	"strings"
)

// Monetary values are carried as int64 minor units (toea) end to end; there
// is no floating-point rounding anywhere between parse and persistence.
const MinorUnitsPerCurrencyUnit int64 = 100

// ParseAmount converts a human-entered amount ("5000", "1,234.56", "12.5")
// into minor units exactly. An empty string parses to zero.
func ParseAmount(s string) (int64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if cleaned == "" {
		return 0, nil
	}

	negative := false
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = cleaned[1:]
	}

	whole := cleaned
	frac := ""
	if i := strings.IndexByte(cleaned, '.'); i >= 0 {
		whole, frac = cleaned[:i], cleaned[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than 2 decimal places", s)
	}

	var minor int64
	for _, c := range whole {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		minor = minor*10 + int64(c-'0')
	}
	minor *= MinorUnitsPerCurrencyUnit

	// right-pad the fraction to 2 digits: "5" means 50 minor units
	fracUnits := int64(0)
	for i := 0; i < 2; i++ {
		fracUnits *= 10
		if i < len(frac) {
			c := frac[i]
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("invalid amount %q", s)
			}
			fracUnits += int64(c - '0')
		}
	}
	minor += fracUnits

	if negative {
		minor = -minor
	}
	return minor, nil
}

// FormatAmount renders minor units for diagnostics and reports. Whole
// amounts print without a fraction ("5000"); others keep two places
// ("5000.50").
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole := minor / MinorUnitsPerCurrencyUnit
	frac := minor % MinorUnitsPerCurrencyUnit
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
}
