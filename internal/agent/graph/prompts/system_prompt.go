package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/hedera-chat-agent/server/internal/agent/graph/tools"
	"github.com/hedera-chat-agent/server/internal/agent/model"
)

//go:embed template/system_prompt.txt
var coreSystemPrompt string

// SystemPromptVars are the runtime values the system prompt is rendered with.
type SystemPromptVars struct {
	OperatorAccountID string
	Pairs             []string
	ToolNames         []string
}

// RenderSystem renders the agent system prompt and triggers prompt callbacks.
func RenderSystem(ctx context.Context, config model.AgentPromptConfig, v SystemPromptVars) (string, error) {
	language := strings.TrimSpace(config.Language)
	if language == "" {
		language = "Spanish"
	}
	operator := v.OperatorAccountID
	if operator == "" {
		operator = "(not configured)"
	}

	// Render via Eino prompt component (Go template) to both format and emit callbacks
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coreSystemPrompt),
	)
	vars := map[string]any{
		"OperatorAccountID": operator,
		"Language":          language,
		"Pairs":             strings.Join(v.Pairs, ", "),
		"Tools":             v.ToolNames,
		"BalanceTool":       tools.ToolGetHbarBalance,
		"TransferTool":      tools.ToolTransferHbar,
		"PriceTool":         tools.ToolGetPriceFeed,
		"AllPricesTool":     tools.ToolGetAllPrices,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}
