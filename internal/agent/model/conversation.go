package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository is the per-user memory the agent graph reads before
// a turn and appends to after it. Implementations trim and expire on write.
type ConversationRepository interface {
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)
}

// ConversationHistory is the stored transcript for one conversation, oldest first.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
