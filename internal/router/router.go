package router

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/hedera-chat-agent/server/internal/metrics"
	"github.com/hedera-chat-agent/server/internal/oracle"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
)

// PriceOracle is the part of the oracle client the router calls.
type PriceOracle interface {
	GetPrice(ctx context.Context, pair string) (*oracle.PriceFeedReading, error)
	GetAllPrices(ctx context.Context) []oracle.PriceFeedReading
	Pairs() []string
}

type Kind int

const (
	// Delegate hands the utterance to the agent.
	Delegate Kind = iota
	// Answered means Reply is the complete assistant response.
	Answered
)

func (k Kind) String() string {
	if k == Answered {
		return "answered"
	}
	return "delegate"
}

type Result struct {
	Kind  Kind
	Reply string
	// Pair is set when a single pair was resolved.
	Pair string
}

type currency struct {
	pair     string
	synonyms []string
}

var (
	triggerKeywords = []string{
		"price", "prices", "quote", "quotes", "worth", "cost", "value",
		"precio", "precios", "cotizacion", "cotización", "valor", "vale",
	}

	// Scanned in order; the first currency with a synonym in the utterance
	// wins, so "btc and eth" resolves to BTC/USD.
	currencies = []currency{
		{pair: "BTC/USD", synonyms: []string{"bitcoin", "btc"}},
		{pair: "ETH/USD", synonyms: []string{"ethereum", "ether", "eth"}},
		{pair: "HBAR/USD", synonyms: []string{"hedera", "hbar"}},
		{pair: "LINK/USD", synonyms: []string{"chainlink", "link"}},
		{pair: "USDC/USD", synonyms: []string{"usdc"}},
		{pair: "USDT/USD", synonyms: []string{"tether", "usdt"}},
		{pair: "DAI/USD", synonyms: []string{"dai"}},
	}

	allKeywords = []string{"all", "list", "every", "todos", "todas", "lista"}
)

// Router answers price questions straight from the oracle and delegates
// everything else.
type Router struct {
	oracle PriceOracle
}

func New(o PriceOracle) *Router {
	return &Router{oracle: o}
}

// Route classifies an utterance. It never fails: oracle errors come back as
// an apology in Reply.
func (r *Router) Route(ctx context.Context, utterance string) Result {
	tokens := tokenize(utterance)
	if !containsAny(tokens, triggerKeywords) {
		metrics.RoutedTurnsTotal.WithLabelValues("delegate").Inc()
		return Result{Kind: Delegate}
	}

	if pair, ok := matchCurrency(tokens); ok {
		metrics.RoutedTurnsTotal.WithLabelValues("price").Inc()
		return Result{Kind: Answered, Pair: pair, Reply: r.priceReply(ctx, pair)}
	}

	if containsAny(tokens, allKeywords) {
		metrics.RoutedTurnsTotal.WithLabelValues("all_prices").Inc()
		return Result{Kind: Answered, Reply: r.allPricesReply(ctx)}
	}

	metrics.RoutedTurnsTotal.WithLabelValues("help").Inc()
	return Result{Kind: Answered, Reply: helpReply(r.oracle.Pairs())}
}

func (r *Router) priceReply(ctx context.Context, pair string) string {
	reading, err := r.oracle.GetPrice(ctx, pair)
	if err != nil {
		logx.Error().Err(err).Str("pair", pair).Msg("Price lookup failed")
		return fmt.Sprintf("Lo siento, no pude obtener el precio de %s en este momento. Intenta de nuevo más tarde.", pair)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💰 El precio actual de %s es %s\n", reading.Pair, oracle.FormatUSD(reading.Price))
	fmt.Fprintf(&b, "🕒 Actualizado: %s\n", reading.UpdatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "🔗 Fuente: Chainlink Price Feeds en Hedera (round %s)", reading.RoundID)
	return b.String()
}

func (r *Router) allPricesReply(ctx context.Context) string {
	readings := r.oracle.GetAllPrices(ctx)
	if len(readings) == 0 {
		return "Lo siento, no pude obtener ningún precio en este momento. Intenta de nuevo más tarde."
	}

	var b strings.Builder
	b.WriteString("📊 Precios actuales (Chainlink en Hedera):")
	for _, reading := range readings {
		fmt.Fprintf(&b, "\n• %s: %s", reading.Pair, oracle.FormatUSD(reading.Price))
	}
	return b.String()
}

func helpReply(pairs []string) string {
	return fmt.Sprintf(
		"Puedo consultar precios en tiempo real de: %s. Pregunta, por ejemplo, \"¿cuál es el precio de bitcoin?\" o \"lista todos los precios\".",
		strings.Join(pairs, ", "),
	)
}

// tokenize lower-cases s and splits it on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAny(tokens, keywords []string) bool {
	for _, k := range keywords {
		if slices.Contains(tokens, k) {
			return true
		}
	}
	return false
}

func matchCurrency(tokens []string) (string, bool) {
	for _, c := range currencies {
		if containsAny(tokens, c.synonyms) {
			return c.pair, true
		}
	}
	return "", false
}
