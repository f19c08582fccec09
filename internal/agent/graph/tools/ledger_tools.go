package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/hedera-chat-agent/server/internal/ledger"
)

// ===================================
// Account queries
// ===================================

type AccountInput struct {
	AccountID string `json:"account_id,omitempty"`
}

func (d Deps) account(in *AccountInput) string {
	if id := strings.TrimSpace(in.AccountID); id != "" {
		return id
	}
	return d.OperatorAccountID
}

func createGetHbarBalanceTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetHbarBalance,
			Desc: "Get the HBAR balance of a Hedera account. Use this whenever the user asks about a balance. When no account is given, the operator account is used.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_id": {
					Type: "string",
					Desc: "Hedera account id in shard.realm.num form, e.g. 0.0.1234. Defaults to the operator account.",
				},
			}),
		},
		func(ctx context.Context, in *AccountInput) (*Result[*ledger.AccountBalance], error) {
			balance, err := deps.Ledger.AccountBalance(ctx, deps.account(in))
			if err != nil {
				return failf[*ledger.AccountBalance]("Failed to get balance: %v", err)
			}
			return succeed(balance)
		},
	)
}

func createGetAccountInfoTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetAccountInfo,
			Desc: "Get public information about a Hedera account: balance, memo, deletion status and expiration time.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_id": {
					Type: "string",
					Desc: "Hedera account id in shard.realm.num form. Defaults to the operator account.",
				},
			}),
		},
		func(ctx context.Context, in *AccountInput) (*Result[*ledger.AccountInfo], error) {
			info, err := deps.Ledger.AccountInfo(ctx, deps.account(in))
			if err != nil {
				return failf[*ledger.AccountInfo]("Failed to get account info: %v", err)
			}
			return succeed(info)
		},
	)
}

// ===================================
// Transfers
// ===================================

type TransferInput struct {
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

func createTransferHbarTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolTransferHbar,
			Desc: "Transfer HBAR from the operator account to another Hedera account. Only call this when the user explicitly asks for a transfer with a recipient and an amount.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"to": {
					Type:     "string",
					Desc:     "Recipient account id, e.g. 0.0.1234",
					Required: true,
				},
				"amount": {
					Type:     "number",
					Desc:     "Amount of HBAR to send, greater than zero",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *TransferInput) (*Result[*ledger.TransferResult], error) {
			if in.To == "" {
				return failf[*ledger.TransferResult]("recipient account id is required")
			}
			if in.Amount <= 0 {
				return failf[*ledger.TransferResult]("amount must be greater than zero")
			}
			res, err := deps.Ledger.TransferHbar(ctx, in.To, in.Amount)
			if err != nil {
				return failf[*ledger.TransferResult]("Failed to transfer HBAR: %v", err)
			}
			return succeed(res)
		},
	)
}

// ===================================
// Consensus service
// ===================================

type CreateTopicInput struct {
	Memo string `json:"memo,omitempty"`
}

type CreateTopicOutput struct {
	TopicID string `json:"topic_id"`
	Memo    string `json:"memo,omitempty"`
}

func createCreateTopicTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCreateTopic,
			Desc: "Create a new Hedera Consensus Service topic and return its id.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"memo": {
					Type: "string",
					Desc: "Optional public memo for the topic",
				},
			}),
		},
		func(ctx context.Context, in *CreateTopicInput) (*Result[*CreateTopicOutput], error) {
			id, err := deps.Ledger.CreateTopic(ctx, in.Memo)
			if err != nil {
				return failf[*CreateTopicOutput]("Failed to create topic: %v", err)
			}
			return succeed(&CreateTopicOutput{TopicID: id, Memo: in.Memo})
		},
	)
}

type SubmitTopicMessageInput struct {
	TopicID string `json:"topic_id"`
	Message string `json:"message"`
}

type SubmitTopicMessageOutput struct {
	TopicID string `json:"topic_id"`
	Bytes   int    `json:"bytes"`
}

func createSubmitTopicMessageTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSubmitTopicMessage,
			Desc: "Submit a text message to an existing Hedera Consensus Service topic.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"topic_id": {
					Type:     "string",
					Desc:     "Topic id in shard.realm.num form, e.g. 0.0.5005",
					Required: true,
				},
				"message": {
					Type:     "string",
					Desc:     "Message text to submit",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *SubmitTopicMessageInput) (*Result[*SubmitTopicMessageOutput], error) {
			if in.TopicID == "" || in.Message == "" {
				return failf[*SubmitTopicMessageOutput]("topic_id and message are required")
			}
			if err := deps.Ledger.SubmitToTopic(ctx, in.TopicID, in.Message); err != nil {
				return failf[*SubmitTopicMessageOutput]("Failed to submit message: %v", err)
			}
			return succeed(&SubmitTopicMessageOutput{TopicID: in.TopicID, Bytes: len(in.Message)})
		},
	)
}
