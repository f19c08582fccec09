package model

// ToolInvocation records one tool call made while answering a query. It is
// logged and returned to the caller, never persisted.
type ToolInvocation struct {
	ToolName    string         `json:"tool_name"`
	ToolInput   map[string]any `json:"tool_input"`
	Observation string         `json:"observation"`
}

// AgentResult is the outcome of one agent invocation.
type AgentResult struct {
	Text      string           `json:"text"`
	ToolCalls []ToolInvocation `json:"tool_calls"`
}
