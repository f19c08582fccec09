package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	hiero "github.com/hashgraph/hedera-sdk-go/v2"

	logx "github.com/hedera-chat-agent/server/pkg/logger"
)

// maxMessageChunks bounds how many 1KB chunks a long agent reply may span.
const maxMessageChunks = 40

// HederaNetwork implements Network and the account operations used by the
// agent tools on top of the Hedera SDK. SDK calls do not accept a context;
// they run to completion even when the caller gives up.
type HederaNetwork struct {
	client   *hiero.Client
	operator hiero.AccountID
}

func NewHederaNetwork(client *hiero.Client, operator hiero.AccountID) *HederaNetwork {
	return &HederaNetwork{client: client, operator: operator}
}

// OperatorID returns the account that pays for and signs transactions.
func (n *HederaNetwork) OperatorID() string {
	return n.operator.String()
}

func (n *HederaNetwork) CreateTopic(ctx context.Context, memo string) (string, error) {
	resp, err := hiero.NewTopicCreateTransaction().
		SetTopicMemo(memo).
		Execute(n.client)
	if err != nil {
		return "", fmt.Errorf("execute topic create: %w", err)
	}
	receipt, err := resp.GetReceipt(n.client)
	if err != nil {
		return "", fmt.Errorf("topic create receipt: %w", err)
	}
	if receipt.TopicID == nil {
		return "", ErrNoTopicInReceipt
	}
	return receipt.TopicID.String(), nil
}

func (n *HederaNetwork) ResolveTopic(ctx context.Context, topicID string) (string, error) {
	id, err := hiero.TopicIDFromString(topicID)
	if err != nil {
		return "", fmt.Errorf("parse topic id: %w", err)
	}
	return id.String(), nil
}

func (n *HederaNetwork) Submit(ctx context.Context, topicID string, payload []byte) error {
	id, err := hiero.TopicIDFromString(topicID)
	if err != nil {
		return fmt.Errorf("parse topic id: %w", err)
	}
	resp, err := hiero.NewTopicMessageSubmitTransaction().
		SetTopicID(id).
		SetMaxChunks(maxMessageChunks).
		SetMessage(payload).
		Execute(n.client)
	if err != nil {
		return fmt.Errorf("execute message submit: %w", err)
	}
	if _, err := resp.GetReceipt(n.client); err != nil {
		return fmt.Errorf("message submit receipt: %w", err)
	}
	return nil
}

func (n *HederaNetwork) Subscribe(ctx context.Context, topicID string, start time.Time, onPayload func([]byte)) (Subscription, error) {
	id, err := hiero.TopicIDFromString(topicID)
	if err != nil {
		return nil, fmt.Errorf("parse topic id: %w", err)
	}

	handle, err := hiero.NewTopicMessageQuery().
		SetTopicID(id).
		SetStartTime(start).
		Subscribe(n.client, func(m hiero.TopicMessage) {
			onPayload(m.Contents)
		})
	if err != nil {
		return nil, err
	}

	sub := &hederaSubscription{handle: handle, done: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

type hederaSubscription struct {
	handle hiero.SubscriptionHandle
	once   sync.Once
	done   chan struct{}
}

func (s *hederaSubscription) Close() {
	s.once.Do(func() {
		s.handle.Unsubscribe()
		close(s.done)
		logx.Debug().Msg("Topic subscription closed")
	})
}

// AccountBalance is the HBAR balance of an account.
type AccountBalance struct {
	AccountID string `json:"account_id"`
	Hbars     string `json:"hbars"`
	Tinybars  int64  `json:"tinybars"`
}

func (n *HederaNetwork) AccountBalance(ctx context.Context, accountID string) (*AccountBalance, error) {
	id, err := n.accountOrOperator(accountID)
	if err != nil {
		return nil, err
	}
	balance, err := hiero.NewAccountBalanceQuery().
		SetAccountID(id).
		Execute(n.client)
	if err != nil {
		return nil, fmt.Errorf("account balance query: %w", err)
	}
	return &AccountBalance{
		AccountID: id.String(),
		Hbars:     balance.Hbars.String(),
		Tinybars:  balance.Hbars.AsTinybar(),
	}, nil
}

// AccountInfo is the public part of an account record.
type AccountInfo struct {
	AccountID      string    `json:"account_id"`
	Balance        string    `json:"balance"`
	Memo           string    `json:"memo,omitempty"`
	Deleted        bool      `json:"deleted"`
	ExpirationTime time.Time `json:"expiration_time"`
}

func (n *HederaNetwork) AccountInfo(ctx context.Context, accountID string) (*AccountInfo, error) {
	id, err := n.accountOrOperator(accountID)
	if err != nil {
		return nil, err
	}
	info, err := hiero.NewAccountInfoQuery().
		SetAccountID(id).
		Execute(n.client)
	if err != nil {
		return nil, fmt.Errorf("account info query: %w", err)
	}
	return &AccountInfo{
		AccountID:      info.AccountID.String(),
		Balance:        info.Balance.String(),
		Memo:           info.AccountMemo,
		Deleted:        info.IsDeleted,
		ExpirationTime: info.ExpirationTime,
	}, nil
}

// TransferResult identifies a settled transfer.
type TransferResult struct {
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Amount        float64 `json:"amount_hbar"`
}

// TransferHbar moves amount HBAR from the operator to the recipient.
func (n *HederaNetwork) TransferHbar(ctx context.Context, to string, amount float64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", amount)
	}
	recipient, err := hiero.AccountIDFromString(to)
	if err != nil {
		return nil, fmt.Errorf("parse recipient: %w", err)
	}

	resp, err := hiero.NewTransferTransaction().
		AddHbarTransfer(n.operator, hiero.HbarFrom(-amount, hiero.HbarUnits.Hbar)).
		AddHbarTransfer(recipient, hiero.HbarFrom(amount, hiero.HbarUnits.Hbar)).
		Execute(n.client)
	if err != nil {
		return nil, fmt.Errorf("execute transfer: %w", err)
	}
	receipt, err := resp.GetReceipt(n.client)
	if err != nil {
		return nil, fmt.Errorf("transfer receipt: %w", err)
	}
	return &TransferResult{
		TransactionID: resp.TransactionID.String(),
		Status:        receipt.Status.String(),
		From:          n.operator.String(),
		To:            recipient.String(),
		Amount:        amount,
	}, nil
}

// SubmitToTopic posts a raw message to any topic on behalf of the agent.
func (n *HederaNetwork) SubmitToTopic(ctx context.Context, topicID, message string) error {
	return n.Submit(ctx, topicID, []byte(message))
}

func (n *HederaNetwork) accountOrOperator(accountID string) (hiero.AccountID, error) {
	if accountID == "" {
		return n.operator, nil
	}
	id, err := hiero.AccountIDFromString(accountID)
	if err != nil {
		return hiero.AccountID{}, fmt.Errorf("parse account id: %w", err)
	}
	return id, nil
}

var _ Network = (*HederaNetwork)(nil)
