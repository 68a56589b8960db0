// Package format renders monetary amounts for display.
package format

import (
	"strings"

	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a euro sign and thousands separators (e.g., "-€1,234.56").
func Currency(amount float64) string {
	sign, formatted := split(amount)
	return sign + constants.CurrencySymbol + formatted
}

// DocumentCurrency returns the ASCII-safe form used in exported documents (e.g., "EUR 1,234.56").
func DocumentCurrency(amount float64) string {
	sign, formatted := split(amount)
	return constants.CurrencyCode + " " + sign + formatted
}

// Fixed returns the amount rounded half away from zero to cents, without separators.
func Fixed(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(constants.DecimalPlaces)
}

func split(amount float64) (string, string) {
	d := decimal.NewFromFloat(amount).Round(constants.DecimalPlaces)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign, formatPositiveCurrency(d.StringFixed(constants.DecimalPlaces))
}

func formatPositiveCurrency(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
