package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/hedera-chat-agent/server/internal/ledger"
	"github.com/hedera-chat-agent/server/internal/oracle"
)

const (
	ToolGetHbarBalance     = "get_hbar_balance"
	ToolGetAccountInfo     = "get_account_info"
	ToolTransferHbar       = "transfer_hbar"
	ToolCreateTopic        = "create_topic"
	ToolSubmitTopicMessage = "submit_topic_message"
	ToolGetPriceFeed       = "get_price_feed"
	ToolGetAllPrices       = "get_all_prices"
)

// Ledger is the set of account and consensus operations the agent may run.
type Ledger interface {
	AccountBalance(ctx context.Context, accountID string) (*ledger.AccountBalance, error)
	AccountInfo(ctx context.Context, accountID string) (*ledger.AccountInfo, error)
	TransferHbar(ctx context.Context, to string, amount float64) (*ledger.TransferResult, error)
	CreateTopic(ctx context.Context, memo string) (string, error)
	SubmitToTopic(ctx context.Context, topicID, message string) error
}

// Prices is the read side of the price oracle.
type Prices interface {
	GetPrice(ctx context.Context, pair string) (*oracle.PriceFeedReading, error)
	GetAllPrices(ctx context.Context) []oracle.PriceFeedReading
	Pairs() []string
}

type Deps struct {
	Ledger Ledger
	Prices Prices
	// OperatorAccountID is used when the model omits an account id.
	OperatorAccountID string
}

// Result is the JSON envelope every tool returns. Domain failures are
// reported in Error instead of failing the graph so the model can explain them.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func succeed[T any](v T) (*Result[T], error) {
	return &Result[T]{Success: true, Data: v}, nil
}

func failf[T any](format string, args ...any) (*Result[T], error) {
	return &Result[T]{Error: fmt.Sprintf(format, args...)}, nil
}

// GetQueryTools returns the tools backed by the configured dependencies.
func GetQueryTools(deps Deps) []tool.BaseTool {
	var ts []tool.BaseTool
	if deps.Ledger != nil {
		ts = append(ts,
			createGetHbarBalanceTool(deps),
			createGetAccountInfoTool(deps),
			createTransferHbarTool(deps),
			createCreateTopicTool(deps),
			createSubmitTopicMessageTool(deps),
		)
	}
	if deps.Prices != nil {
		ts = append(ts,
			createGetPriceFeedTool(deps),
			createGetAllPricesTool(deps),
		)
	}
	return ts
}

// GetToolInfos collects the schema of each tool for binding to a chat model.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
