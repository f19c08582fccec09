package oracle

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		raw      int64
		decimals uint8
		want     string
	}{
		{"btc", 8624000000000, 8, "86240.00"},
		{"round half up", 12345, 3, "12.35"},
		{"round down", 12344, 3, "12.34"},
		{"negative half away from zero", -12345, 3, "-12.35"},
		{"small", 5, 8, "0.00"},
		{"no decimals", 42, 0, "42.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(big.NewInt(tt.raw), tt.decimals))
		})
	}
}

func TestFormatValueIsDeterministic(t *testing.T) {
	raw, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	first := FormatValue(raw, 18)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FormatValue(raw, 18))
	}
	assert.Equal(t, "123456789012.35", first)
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$86,240.00", FormatUSD(decimal.RequireFromString("86240")))
	assert.Equal(t, "$0.07", FormatUSD(decimal.RequireFromString("0.06789")))
	assert.Equal(t, "$1,234,567.10", FormatUSD(decimal.RequireFromString("1234567.1")))
	assert.Equal(t, "-$999.99", FormatUSD(decimal.RequireFromString("-999.99")))
}

func TestNormalizePair(t *testing.T) {
	assert.Equal(t, "BTC/USD", NormalizePair(" btc / usd "))
	assert.Equal(t, "HBAR/USD", NormalizePair("Hbar/Usd"))
}
