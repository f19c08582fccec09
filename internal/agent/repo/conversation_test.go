package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/hedera-chat-agent/server/internal/agent/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisConversationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisConversationRepository(rdb, ttl), mr
}

func exerciseRepository(t *testing.T, r model.ConversationRepository) {
	ctx := context.Background()

	history, err := r.LoadHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)

	require.NoError(t, r.AddMessage(ctx, "alice", schema.UserMessage("what is my balance?")))
	require.NoError(t, r.AddMessage(ctx, "alice", schema.AssistantMessage("Tu balance es 10 ℏ", nil)))
	require.NoError(t, r.AddMessage(ctx, "bob", schema.UserMessage("hola")))

	history, err = r.LoadHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "alice", history.ConversationID)
	assert.Equal(t, schema.User, history.Messages[0].Role)
	assert.Equal(t, "what is my balance?", history.Messages[0].Content)
	assert.Equal(t, schema.Assistant, history.Messages[1].Role)

	history, err = r.LoadHistory(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hola", history.Messages[0].Content)
}

func TestRedisConversationRepository(t *testing.T) {
	r, _ := newRedisRepo(t, time.Minute)
	exerciseRepository(t, r)
}

func TestMemoryConversationRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryConversationRepository(time.Minute))
}

func TestRedisConversationExpires(t *testing.T) {
	r, mr := newRedisRepo(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "alice", schema.UserMessage("hola")))
	assert.Equal(t, time.Minute, mr.TTL(r.conversationKey("alice")))

	mr.FastForward(2 * time.Minute)
	history, err := r.LoadHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)
}

func TestRedisConversationIsCapped(t *testing.T) {
	r, _ := newRedisRepo(t, 0)
	ctx := context.Background()

	for i := 0; i < maxStoredMessages+5; i++ {
		require.NoError(t, r.AddMessage(ctx, "alice", schema.UserMessage("msg")))
	}
	history, err := r.LoadHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, history.Messages, maxStoredMessages)
}

func TestRedisConversationUnavailable(t *testing.T) {
	r, mr := newRedisRepo(t, time.Minute)
	mr.Close()

	err := r.AddMessage(context.Background(), "alice", schema.UserMessage("hola"))
	require.Error(t, err)
}

func TestMemoryConversationExpires(t *testing.T) {
	r := NewMemoryConversationRepository(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "alice", schema.UserMessage("hola")))
	now = now.Add(2 * time.Minute)

	history, err := r.LoadHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)
}
