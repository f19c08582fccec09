package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/hedera-chat-agent/server/internal/agent/model"
)

// MemoryConversationRepository keeps conversations in process memory. It is
// used when REDIS_URL is not configured; history does not survive a restart.
type MemoryConversationRepository struct {
	ttl time.Duration
	now func() time.Time

	mu            sync.Mutex
	conversations map[string]*memoryConversation
}

type memoryConversation struct {
	messages  []*schema.Message
	expiresAt time.Time
}

func NewMemoryConversationRepository(ttl time.Duration) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		ttl:           ttl,
		now:           time.Now,
		conversations: make(map[string]*memoryConversation),
	}
}

// get returns the live conversation, dropping it if expired. Caller holds mu.
func (r *MemoryConversationRepository) get(conversationID string) *memoryConversation {
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil
	}
	if r.ttl > 0 && r.now().After(c.expiresAt) {
		delete(r.conversations, conversationID)
		return nil
	}
	return c
}

func (r *MemoryConversationRepository) AddMessage(ctx context.Context, conversationID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.get(conversationID)
	if c == nil {
		c = &memoryConversation{}
		r.conversations[conversationID] = c
	}
	c.messages = append(c.messages, message)
	if len(c.messages) > maxStoredMessages {
		c.messages = c.messages[len(c.messages)-maxStoredMessages:]
	}
	c.expiresAt = r.now().Add(r.ttl)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := []*schema.Message{}
	if c := r.get(conversationID); c != nil {
		msgs = make([]*schema.Message, len(c.messages))
		copy(msgs, c.messages)
	}
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
