package oracle

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// PriceDecimals is the fixed precision of formatted prices.
const PriceDecimals = 2

// ScaleValue converts a raw aggregator answer into its decimal value.
func ScaleValue(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// FormatValue renders raw / 10^decimals with two decimal places, rounding
// half away from zero. 8624000000000 with 8 decimals is "86240.00".
func FormatValue(raw *big.Int, decimals uint8) string {
	return ScaleValue(raw, decimals).StringFixed(PriceDecimals)
}

// FormatUSD renders a value as "$86,240.00".
func FormatUSD(value decimal.Decimal) string {
	fixed := value.StringFixed(PriceDecimals)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	whole, frac, _ := strings.Cut(fixed, ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign + "$" + fixed
	}
	return sign + "$" + humanize.BigComma(n) + "." + frac
}
