package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL      time.Duration `envconfig:"CONVERSATION_TTL" default:"15m"`
	MaxTurns int           `envconfig:"CONVERSATION_MAX_TURNS" default:"10"`
}

type AgentModelConfig struct {
	APIKey        string  `envconfig:"GEMINI_API_KEY"`
	BaseURL       string  `envconfig:"GEMINI_BASE_URL"`
	Model         string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens     int     `envconfig:"AGENT_MAX_TOKENS" default:"2048"`
	Temperature   float32 `envconfig:"AGENT_TEMPERATURE" default:"0.7"`
	MaxIterations int     `envconfig:"AGENT_MAX_ITERATIONS" default:"3"`
}

// Enabled reports whether an LLM key was configured. Without one the server
// still runs; only the agent path is unavailable.
func (c AgentModelConfig) Enabled() bool {
	return c.APIKey != ""
}

type AgentPromptConfig struct {
	Language string `envconfig:"AGENT_LANGUAGE" default:"Spanish"`
}
