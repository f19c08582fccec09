package errx

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrAgentUnavailable   = errors.New("agent not initialized")
	ErrAgentRateLimited   = errors.New("agent rate limited")
	ErrAgentQuotaExceeded = errors.New("agent quota exceeded")
	ErrAgentInvalidKey    = errors.New("agent api key rejected")
	ErrAgentFailed        = errors.New("agent invocation failed")
)

const (
	AgentUnavailableMessage = "⚠️ El agente de IA no está disponible. Verifica tu GEMINI_API_KEY."
	AgentRateLimitMessage   = "⚠️ Rate limit alcanzado. Por favor espera un momento e intenta de nuevo."
	AgentQuotaMessage       = "⚠️ Sin créditos. Verifica tu cuenta."
	AgentInvalidKeyMessage  = "⚠️ API Key inválida. Verifica tu configuración."
	AgentTimeoutMessage     = "⚠️ El agente tardó demasiado en responder. Intenta de nuevo."
)

type agentPattern struct {
	needles []string
	kind    error
	status  int
	message string
}

// Order matters: Gemini per-minute limits mention "quota" alongside 429.
var agentPatterns = []agentPattern{
	{[]string{"rate_limit", "rate limit", "429", "resource_exhausted"}, ErrAgentRateLimited, http.StatusTooManyRequests, AgentRateLimitMessage},
	{[]string{"insufficient_quota"}, ErrAgentQuotaExceeded, http.StatusPaymentRequired, AgentQuotaMessage},
	{[]string{"invalid_api_key", "api_key_invalid", "api key not valid"}, ErrAgentInvalidKey, http.StatusUnauthorized, AgentInvalidKeyMessage},
}

// ClassifyAgent pattern-matches provider error text into a distinct, user-readable
// AppError. Unrecognised errors are still wrapped, never dropped.
func ClassifyAgent(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(errors.Join(ErrAgentFailed, err), http.StatusGatewayTimeout, AgentTimeoutMessage)
	}

	text := strings.ToLower(err.Error())
	for _, p := range agentPatterns {
		for _, n := range p.needles {
			if strings.Contains(text, n) {
				return New(errors.Join(p.kind, err), p.status, p.message)
			}
		}
	}
	return New(errors.Join(ErrAgentFailed, err), http.StatusBadGateway, ChatFallbackMessage)
}
