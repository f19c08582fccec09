package oracle

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hedera-chat-agent/server/internal/metrics"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads bounds the GetAllPrices fan-out against the RPC relay.
const maxConcurrentReads = 4

// RoundData is the subset of latestRoundData used for a reading.
type RoundData struct {
	RoundID   *big.Int
	Answer    *big.Int
	UpdatedAt time.Time
}

// FeedReader reads aggregator contracts.
type FeedReader interface {
	LatestRoundData(ctx context.Context, address common.Address) (RoundData, error)
	Decimals(ctx context.Context, address common.Address) (uint8, error)
}

// PriceFeedReading is one fresh read of a feed. Readings are never cached.
type PriceFeedReading struct {
	Pair           string          `json:"pair"`
	Address        string          `json:"address"`
	RawValue       *big.Int        `json:"rawValue"`
	Decimals       uint8           `json:"decimals"`
	Price          decimal.Decimal `json:"price"`
	FormattedValue string          `json:"formattedPrice"`
	RoundID        string          `json:"roundId"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Client answers price queries against a fixed, ordered feed registry.
type Client struct {
	reader FeedReader
	feeds  []Feed
	byPair map[string]Feed
}

// NewClient builds a client over feeds, or the default registry when none are given.
func NewClient(reader FeedReader, feeds ...Feed) *Client {
	if len(feeds) == 0 {
		feeds = DefaultFeeds()
	}
	byPair := make(map[string]Feed, len(feeds))
	for _, f := range feeds {
		byPair[NormalizePair(f.Pair)] = f
	}
	return &Client{reader: reader, feeds: feeds, byPair: byPair}
}

// Pairs lists the supported pairs in registry order.
func (c *Client) Pairs() []string {
	pairs := make([]string, len(c.feeds))
	for i, f := range c.feeds {
		pairs[i] = f.Pair
	}
	return pairs
}

// GetPrice reads the latest round of one pair.
func (c *Client) GetPrice(ctx context.Context, pair string) (*PriceFeedReading, error) {
	feed, ok := c.byPair[NormalizePair(pair)]
	if !ok {
		metrics.PriceLookupsTotal.WithLabelValues("unknown", "unknown_pair").Inc()
		return nil, &UnknownPairError{Pair: pair, Available: c.Pairs()}
	}

	reading, err := c.read(ctx, feed)
	if err != nil {
		metrics.PriceLookupsTotal.WithLabelValues(feed.Pair, "error").Inc()
		return nil, &FeedError{Pair: feed.Pair, Err: err}
	}
	metrics.PriceLookupsTotal.WithLabelValues(feed.Pair, "ok").Inc()
	return reading, nil
}

// GetAllPrices reads every feed concurrently and returns the successful
// readings in registry order. Individual failures are logged and dropped.
func (c *Client) GetAllPrices(ctx context.Context) []PriceFeedReading {
	results := make([]*PriceFeedReading, len(c.feeds))

	var g errgroup.Group
	g.SetLimit(maxConcurrentReads)
	for i, feed := range c.feeds {
		g.Go(func() error {
			reading, err := c.GetPrice(ctx, feed.Pair)
			if err != nil {
				logx.Warn().Err(err).Str("pair", feed.Pair).Msg("Error fetching price")
				return nil
			}
			results[i] = reading
			return nil
		})
	}
	_ = g.Wait()

	readings := make([]PriceFeedReading, 0, len(results))
	for _, r := range results {
		if r != nil {
			readings = append(readings, *r)
		}
	}
	return readings
}

func (c *Client) read(ctx context.Context, feed Feed) (*PriceFeedReading, error) {
	round, err := c.reader.LatestRoundData(ctx, feed.Address)
	if err != nil {
		return nil, err
	}
	decimals, err := c.reader.Decimals(ctx, feed.Address)
	if err != nil {
		return nil, err
	}

	raw := round.Answer
	if raw == nil {
		raw = new(big.Int)
	}
	roundID := "0"
	if round.RoundID != nil {
		roundID = round.RoundID.String()
	}

	return &PriceFeedReading{
		Pair:           feed.Pair,
		Address:        feed.Address.Hex(),
		RawValue:       raw,
		Decimals:       decimals,
		Price:          ScaleValue(raw, decimals),
		FormattedValue: FormatValue(raw, decimals),
		RoundID:        roundID,
		UpdatedAt:      round.UpdatedAt.UTC(),
	}, nil
}
