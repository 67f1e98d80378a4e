package domain

import "github.com/shopspring/decimal"

// Money wraps a decimal as a present (non-null) amount.
func Money(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
