package hedera

import (
	"errors"
	"fmt"
	"strings"

	hiero "github.com/hashgraph/hedera-sdk-go/v2"
)

// ErrMissingOperator is returned when the operator account or key is absent.
var ErrMissingOperator = errors.New("ACCOUNT_ID and PRIVATE_KEY must be set")

// Config describes the operator identity and the network the chat server signs with.
type Config struct {
	Network    string `envconfig:"HEDERA_NETWORK" default:"testnet"`
	AccountID  string `envconfig:"ACCOUNT_ID"`
	PrivateKey string `envconfig:"PRIVATE_KEY"`
	KeyType    string `envconfig:"PRIVATE_KEY_TYPE" default:"ecdsa"`
}

// Operator is the parsed operator identity.
type Operator struct {
	AccountID hiero.AccountID
	Key       hiero.PrivateKey
}

// ParseOperator validates and parses the configured credentials.
func (c *Config) ParseOperator() (Operator, error) {
	if strings.TrimSpace(c.AccountID) == "" || strings.TrimSpace(c.PrivateKey) == "" {
		return Operator{}, ErrMissingOperator
	}

	accountID, err := hiero.AccountIDFromString(strings.TrimSpace(c.AccountID))
	if err != nil {
		return Operator{}, fmt.Errorf("parse ACCOUNT_ID: %w", err)
	}

	key, err := parseKey(strings.ToLower(c.KeyType), strings.TrimSpace(c.PrivateKey))
	if err != nil {
		return Operator{}, fmt.Errorf("parse PRIVATE_KEY: %w", err)
	}
	return Operator{AccountID: accountID, Key: key}, nil
}

func parseKey(kind, raw string) (hiero.PrivateKey, error) {
	switch kind {
	case "ecdsa", "":
		return hiero.PrivateKeyFromStringECDSA(raw)
	case "ed25519":
		return hiero.PrivateKeyFromStringEd25519(raw)
	case "der":
		return hiero.PrivateKeyFromStringDer(raw)
	default:
		return hiero.PrivateKey{}, fmt.Errorf("unsupported key type %q", kind)
	}
}

// New builds a client for the configured network with the operator set.
func (c *Config) New() (*hiero.Client, Operator, error) {
	op, err := c.ParseOperator()
	if err != nil {
		return nil, Operator{}, err
	}

	client, err := hiero.ClientForName(c.Network)
	if err != nil {
		return nil, Operator{}, fmt.Errorf("hedera network %q: %w", c.Network, err)
	}
	client.SetOperator(op.AccountID, op.Key)

	return client, op, nil
}
