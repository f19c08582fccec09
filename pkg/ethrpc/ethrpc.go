package ethrpc

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Config is the JSON-RPC relay used to read price feed contracts.
type Config struct {
	URL         string        `envconfig:"ORACLE_RPC_URL" default:"https://testnet.hashio.io/api"`
	DialTimeout time.Duration `envconfig:"ORACLE_DIAL_TIMEOUT" default:"10s"`
}

// New dials the relay. The relay is HTTP so dialing does not touch the network;
// failures surface on the first contract call.
func (c *Config) New(ctx context.Context) (*ethclient.Client, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("ORACLE_RPC_URL is empty")
	}
	timeout := c.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, c.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.URL, err)
	}
	return client, nil
}
