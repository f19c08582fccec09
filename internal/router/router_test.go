package router

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/hedera-chat-agent/server/internal/oracle"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	readings map[string]oracle.PriceFeedReading
	err      error
	asked    []string
	allCalls int
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{readings: map[string]oracle.PriceFeedReading{
		"BTC/USD": reading("BTC/USD", 8624000000000),
		"ETH/USD": reading("ETH/USD", 312345000000),
	}}
}

func reading(pair string, raw int64) oracle.PriceFeedReading {
	r := big.NewInt(raw)
	return oracle.PriceFeedReading{
		Pair:           pair,
		RawValue:       r,
		Decimals:       8,
		Price:          decimal.NewFromBigInt(r, -8),
		FormattedValue: oracle.FormatValue(r, 8),
		RoundID:        "42",
		UpdatedAt:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeOracle) GetPrice(ctx context.Context, pair string) (*oracle.PriceFeedReading, error) {
	f.asked = append(f.asked, pair)
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.readings[pair]
	if !ok {
		return nil, &oracle.UnknownPairError{Pair: pair, Available: f.Pairs()}
	}
	return &r, nil
}

func (f *fakeOracle) GetAllPrices(ctx context.Context) []oracle.PriceFeedReading {
	f.allCalls++
	if f.err != nil {
		return nil
	}
	return []oracle.PriceFeedReading{f.readings["BTC/USD"], f.readings["ETH/USD"]}
}

func (f *fakeOracle) Pairs() []string {
	return []string{"BTC/USD", "ETH/USD", "HBAR/USD"}
}

func TestRouteSinglePrice(t *testing.T) {
	o := newFakeOracle()
	res := New(o).Route(context.Background(), "What's the price of Bitcoin?")

	assert.Equal(t, Answered, res.Kind)
	assert.Equal(t, "BTC/USD", res.Pair)
	assert.Equal(t, []string{"BTC/USD"}, o.asked)
	assert.Contains(t, res.Reply, "$86,240.00")
	assert.Contains(t, res.Reply, "2025-01-01 12:00:00 UTC")
	assert.Contains(t, res.Reply, "Chainlink")
	assert.Contains(t, res.Reply, "round 42")
}

func TestRouteDelegates(t *testing.T) {
	o := newFakeOracle()
	r := New(o)

	for _, utterance := range []string{
		"transfer 5 HBAR to 0.0.1234",
		"what is my balance?",
		"create a topic called something",
		"",
	} {
		res := r.Route(context.Background(), utterance)
		assert.Equal(t, Delegate, res.Kind, utterance)
		assert.Empty(t, res.Reply)
	}
	assert.Empty(t, o.asked)
}

func TestRouteFirstMatchWins(t *testing.T) {
	o := newFakeOracle()
	res := New(o).Route(context.Background(), "price of eth and btc")

	assert.Equal(t, "BTC/USD", res.Pair, "registry order decides, not utterance order")
}

func TestRouteMatchesWholeTokensOnly(t *testing.T) {
	o := newFakeOracle()
	res := New(o).Route(context.Background(), "what is the value of something")

	assert.Equal(t, Answered, res.Kind)
	assert.Empty(t, res.Pair)
	assert.Empty(t, o.asked)
	assert.Contains(t, res.Reply, "BTC/USD, ETH/USD, HBAR/USD")
}

func TestRouteSpanish(t *testing.T) {
	o := newFakeOracle()
	res := New(o).Route(context.Background(), "¿Cuál es la cotización de ETHEREUM?")

	assert.Equal(t, "ETH/USD", res.Pair)
	assert.Contains(t, res.Reply, "$3,123.45")
}

func TestRouteAllPrices(t *testing.T) {
	o := newFakeOracle()
	res := New(o).Route(context.Background(), "list all prices")

	assert.Equal(t, Answered, res.Kind)
	assert.Equal(t, 1, o.allCalls)
	assert.Contains(t, res.Reply, "• BTC/USD: $86,240.00")
	assert.Contains(t, res.Reply, "• ETH/USD: $3,123.45")
}

func TestRouteAllPricesNoneAvailable(t *testing.T) {
	o := newFakeOracle()
	o.err = errors.New("rpc down")
	res := New(o).Route(context.Background(), "todos los precios")

	assert.Equal(t, Answered, res.Kind)
	assert.Contains(t, res.Reply, "Lo siento")
}

func TestRouteHelp(t *testing.T) {
	res := New(newFakeOracle()).Route(context.Background(), "prices?")

	assert.Equal(t, Answered, res.Kind)
	assert.Contains(t, res.Reply, "BTC/USD, ETH/USD, HBAR/USD")
}

func TestRouteOracleErrorBecomesApology(t *testing.T) {
	o := newFakeOracle()
	o.err = &oracle.FeedError{Pair: "BTC/USD", Err: errors.New("execution reverted")}

	var res Result
	require.NotPanics(t, func() {
		res = New(o).Route(context.Background(), "btc price")
	})
	assert.Equal(t, Answered, res.Kind)
	assert.Equal(t, "BTC/USD", res.Pair)
	assert.Contains(t, res.Reply, "Lo siento")
	assert.NotContains(t, res.Reply, "reverted")
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "s", "the", "price", "of", "btc"}, tokenize("What's the PRICE of btc?"))
	assert.Equal(t, []string{"cotización", "hbar"}, tokenize("cotización/HBAR"))
}
