package nodes

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/hedera-chat-agent/server/internal/agent/model"
)

const (
	NodeInputConverter    = "InputConverter"
	NodeResponseChatModel = "ResponseChatModel"
	NodeToolExecutor      = "ToolExecutor"
)

const DefaultMaxToolCalls = 3

// ===== Small helpers to keep handlers simple/readable =====
// normalizeMaxToolCalls returns a sane default when the provided value is invalid.
func normalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit evaluates whether another tool call would exceed the
// limit and, if so, marks the state accordingly. Returns true when marked now.
func checkAndMarkToolLimit(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	if !state.ToolCallLimitReached && state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// incrementToolCallAndCheck increments the count and marks the state if it
// exceeds the limit after incrementing. Returns true when exceeded.
func incrementToolCallAndCheck(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	state.ToolCallCount++
	if state.ToolCallCount > max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// lastToolCalls returns the tool calls of the most recent assistant message.
func lastToolCalls(history []*schema.Message) []schema.ToolCall {
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m != nil && m.Role == schema.Assistant && len(m.ToolCalls) > 0 {
			return m.ToolCalls
		}
	}
	return nil
}

// recordToolInvocations pairs tool results with the calls that produced them.
func recordToolInvocations(state *model.AppState, results []*schema.Message) {
	calls := lastToolCalls(state.History)
	byID := make(map[string]schema.ToolCall, len(calls))
	for _, c := range calls {
		byID[c.ID] = c
	}

	for i, res := range results {
		if res == nil {
			continue
		}
		call, ok := byID[res.ToolCallID]
		if !ok && i < len(calls) {
			call = calls[i]
		}
		name := call.Function.Name
		if name == "" {
			name = res.ToolName
		}
		state.ToolInvocations = append(state.ToolInvocations, model.ToolInvocation{
			ToolName:    name,
			ToolInput:   decodeArguments(call.Function.Arguments),
			Observation: res.Content,
		})
	}
}

func decodeArguments(arguments string) map[string]any {
	m := map[string]any{}
	if strings.TrimSpace(arguments) == "" {
		return m
	}
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return map[string]any{"raw": arguments}
	}
	return m
}
