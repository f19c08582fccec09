package oracle

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Feed is one on-chain price aggregator.
type Feed struct {
	Pair    string
	Address common.Address
}

// Chainlink aggregators deployed on Hedera testnet. Order is significant:
// it is the order pairs are listed and aggregated in.
var defaultFeeds = []Feed{
	{Pair: "BTC/USD", Address: common.HexToAddress("0x058fE79CB5775d4b167920Ca6036B824805A9ABd")},
	{Pair: "ETH/USD", Address: common.HexToAddress("0xb9d461e0b962aF219866aDfA7DD19C52bB9871b9")},
	{Pair: "HBAR/USD", Address: common.HexToAddress("0x59bC155EB6c6C415fE43255aF66EcF0523c92B4a")},
	{Pair: "LINK/USD", Address: common.HexToAddress("0xEB93a53C648e3e89Bc0FC327D36A37619B1Cf0cd")},
	{Pair: "USDC/USD", Address: common.HexToAddress("0x2946220288DbaeC91A26c772f5A1bb7B191c1A73")},
	{Pair: "USDT/USD", Address: common.HexToAddress("0x1c5275A77d74c89256801322e9A52a991c68e79b")},
	{Pair: "DAI/USD", Address: common.HexToAddress("0xb7546c6ebfc0b6b4fe68909734d7e2c1c5a3ffdf")},
}

// DefaultFeeds returns a copy of the built-in registry.
func DefaultFeeds() []Feed {
	out := make([]Feed, len(defaultFeeds))
	copy(out, defaultFeeds)
	return out
}

// NormalizePair upper-cases a pair and strips whitespace: " btc / usd" -> "BTC/USD".
func NormalizePair(pair string) string {
	return strings.ToUpper(strings.Join(strings.Fields(pair), ""))
}
