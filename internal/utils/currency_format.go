package utils

import (
	"github.com/shopspring/decimal"
)

// FormatAmount renders a money amount at two decimals with a currency symbol.
// Example: amount 105.5 with "₹" returns "₹105.50"; -3 returns "-₹3.00"
func FormatAmount(amount decimal.Decimal, symbol string) string {
	if amount.IsNegative() {
		return "-" + symbol + amount.Neg().StringFixed(2)
	}
	return symbol + amount.StringFixed(2)
}

// FormatQuantity trims trailing zeros from a quantity, keeping at most three decimals.
// Example: 2.500 returns "2.5"
func FormatQuantity(q decimal.Decimal) string {
	return q.Round(3).String()
}
