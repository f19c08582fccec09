package oracle

import (
	"fmt"
	"strings"
)

// UnknownPairError is returned for a pair outside the registry.
type UnknownPairError struct {
	Pair      string
	Available []string
}

func (e *UnknownPairError) Error() string {
	return fmt.Sprintf("price feed for %s not found. Available pairs: %s", e.Pair, strings.Join(e.Available, ", "))
}

// FeedError wraps a failed read of a registered feed.
type FeedError struct {
	Pair string
	Err  error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("failed to fetch %s price from Chainlink: %v", e.Pair, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}
