package httpapi

import (
	"context"

	"github.com/hedera-chat-agent/server/internal/ledger"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
)

// FeedSubscriber opens the topic's live feed.
type FeedSubscriber interface {
	SubscribeToMessages(ctx context.Context, onMessage func(ledger.ChatMessage)) (ledger.Subscription, error)
}

// RelayFeed broadcasts every topic entry to the websocket clients as
// newMessage and blocks until ctx is done. A feed that cannot be opened
// leaves the chat usable without live updates.
func RelayFeed(ctx context.Context, feed FeedSubscriber, hub *Hub) {
	log := logx.With("relay")

	sub, err := feed.SubscribeToMessages(ctx, func(msg ledger.ChatMessage) {
		if err := hub.BroadcastEvent(EventNewMessage, msg); err != nil {
			log.Warn().Err(err).Msg("Failed to broadcast topic entry")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("Live feed unavailable; clients will not receive realtime messages")
		return
	}
	<-ctx.Done()
	sub.Close()
}
