package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAgent(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		kind    error
		status  int
		message string
	}{
		{"rate limit text", errors.New("groq: rate_limit_exceeded"), ErrAgentRateLimited, http.StatusTooManyRequests, AgentRateLimitMessage},
		{"http 429", errors.New("Error 429, Message: Resource has been exhausted"), ErrAgentRateLimited, http.StatusTooManyRequests, AgentRateLimitMessage},
		{"gemini per-minute quota", errors.New("Error 429, Message: You exceeded your current quota, please check your plan and billing details., Status: RESOURCE_EXHAUSTED"), ErrAgentRateLimited, http.StatusTooManyRequests, AgentRateLimitMessage},
		{"quota", errors.New("insufficient_quota: you exceeded your current quota"), ErrAgentQuotaExceeded, http.StatusPaymentRequired, AgentQuotaMessage},
		{"bad key", errors.New("API key not valid. Please pass a valid API key."), ErrAgentInvalidKey, http.StatusUnauthorized, AgentInvalidKeyMessage},
		{"timeout", fmt.Errorf("generate: %w", context.DeadlineExceeded), ErrAgentFailed, http.StatusGatewayTimeout, AgentTimeoutMessage},
		{"unknown", errors.New("boom"), ErrAgentFailed, http.StatusBadGateway, ChatFallbackMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ClassifyAgent(tc.err)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.status, StatusOf(err))
			assert.Equal(t, tc.message, UserMessage(err))
		})
	}
}

func TestClassifyAgentKeepsAppError(t *testing.T) {
	in := New(ErrAgentUnavailable, http.StatusServiceUnavailable, AgentUnavailableMessage)
	assert.Same(t, in, ClassifyAgent(in))
	assert.NoError(t, ClassifyAgent(nil))
}

func TestUserMessageHidesInternals(t *testing.T) {
	assert.Equal(t, ChatFallbackMessage, UserMessage(errors.New("dial tcp 10.0.0.1: refused")))
}

func TestWrapRedis(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("conn reset"))))
	assert.NoError(t, WrapRedis(nil))
}

func TestWrapLedger(t *testing.T) {
	cause := errors.New("INVALID_TOPIC_ID")
	err := WrapLedger(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Contains(t, err.Error(), LedgerErrorMessage)
}
