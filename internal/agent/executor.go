package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hedera-chat-agent/server/internal/agent/graph"
	"github.com/hedera-chat-agent/server/internal/agent/model"
	errx "github.com/hedera-chat-agent/server/internal/core/error"
	"github.com/hedera-chat-agent/server/internal/metrics"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
)

// emptyAnswer is returned when the model stopped without producing text,
// usually because it hit the tool-call limit while still asking for tools.
const emptyAnswer = "No pude completar la solicitud con las herramientas disponibles. ¿Puedes reformularla?"

// Executor runs one bounded tool-calling turn per utterance. It never retries.
type Executor struct {
	runner graph.Runner
}

func NewExecutor(runner graph.Runner) *Executor {
	return &Executor{runner: runner}
}

// Invoke answers utterance within the conversation identified by
// conversationID. Provider errors are classified into errx agent errors.
func (e *Executor) Invoke(ctx context.Context, conversationID, utterance string) (*model.AgentResult, error) {
	if e == nil || e.runner == nil {
		return nil, errx.New(errx.ErrAgentUnavailable, http.StatusServiceUnavailable, errx.AgentUnavailableMessage)
	}

	logx.Info().Str("conversation_id", conversationID).Str("utterance", utterance).Msg("Processing message")

	out, err := e.runner.Invoke(ctx, model.QueryInput{ConversationID: conversationID, Query: utterance})
	if err != nil {
		classified := errx.ClassifyAgent(err)
		metrics.AgentInvocationsTotal.WithLabelValues(agentResultLabel(classified)).Inc()
		logx.Error().Err(err).Str("conversation_id", conversationID).Int("status", errx.StatusOf(classified)).Msg("Error processing message")
		return nil, classified
	}

	logToolUsage(conversationID, out.ToolInvocations)
	if out.TotalCostUSD > 0 {
		logx.Debug().Str("conversation_id", conversationID).Float64("total_cost_usd", out.TotalCostUSD).Msg("Query cost")
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		text = emptyAnswer
	}
	metrics.AgentInvocationsTotal.WithLabelValues("ok").Inc()

	return &model.AgentResult{Text: text, ToolCalls: out.ToolInvocations}, nil
}

func logToolUsage(conversationID string, invocations []model.ToolInvocation) {
	if len(invocations) == 0 {
		logx.Warn().Str("conversation_id", conversationID).Msg("No tools were used - agent may be hallucinating")
		return
	}
	for i, inv := range invocations {
		input, _ := json.Marshal(inv.ToolInput)
		obs := inv.Observation
		if len(obs) > 200 {
			obs = obs[:200] + "..."
		}
		logx.Info().
			Str("conversation_id", conversationID).
			Int("step", i+1).
			Str("tool", inv.ToolName).
			RawJSON("input", input).
			Str("result", obs).
			Msg("Tool used")
	}
}

func agentResultLabel(err error) string {
	switch {
	case errors.Is(err, errx.ErrAgentRateLimited):
		return "rate_limited"
	case errors.Is(err, errx.ErrAgentQuotaExceeded):
		return "quota"
	case errors.Is(err, errx.ErrAgentInvalidKey):
		return "invalid_key"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
