// Package units converts base-unit big integer amounts into human readable
// decimal token amounts for the read surface. Settlement math never touches
// these; money moves in base units only.
package units

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TokenDecimals is the scale of every payment amount in the marketplace.
const TokenDecimals = 18

// ToDecimal scales a base-unit amount down by decimals.
func ToDecimal(value *big.Int, decimals int32) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -decimals)
}

// Format renders a base-unit amount as a decimal string at the default
// token scale.
func Format(value *big.Int) string {
	return ToDecimal(value, TokenDecimals).String()
}
