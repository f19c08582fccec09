package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hedera-chat-agent/server/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type feedSubscription struct {
	mu     sync.Mutex
	closed bool
}

func (s *feedSubscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *feedSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// feedNetwork hands the subscription callback back to the test so entries
// can be pushed as the mirror node would.
type feedNetwork struct {
	mu           sync.Mutex
	onPayload    func([]byte)
	sub          *feedSubscription
	subscribeErr error
}

func (f *feedNetwork) CreateTopic(ctx context.Context, memo string) (string, error) {
	return "0.0.5005", nil
}

func (f *feedNetwork) ResolveTopic(ctx context.Context, topicID string) (string, error) {
	return topicID, nil
}

func (f *feedNetwork) Submit(ctx context.Context, topicID string, payload []byte) error {
	return nil
}

func (f *feedNetwork) Subscribe(ctx context.Context, topicID string, start time.Time, onPayload func([]byte)) (ledger.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.onPayload = onPayload
	f.sub = &feedSubscription{}
	return f.sub, nil
}

func (f *feedNetwork) push(payload []byte) {
	f.mu.Lock()
	fn := f.onPayload
	f.mu.Unlock()
	fn(payload)
}

func (f *feedNetwork) subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.onPayload != nil
}

func feedStore(t *testing.T, network *feedNetwork) *ledger.Store {
	t.Helper()
	s := ledger.NewStore(network, ledger.Config{
		TopicID:             "0.0.5005",
		SubscribeLookback:   30 * time.Second,
		SubscribeMaxRetries: 2,
		BackoffBase:         time.Millisecond,
		BackoffCap:          time.Millisecond,
	})
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestRelayFeedBroadcastsTopicEntries(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, cancelHub := startHub(t)
	feed := &feedNetwork{}
	store := feedStore(t, feed)

	srv := NewServer(Config{WS: WSConfig{PingInterval: time.Hour}}, &fakeChat{topicID: store.TopicID()}, nil, hub)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, EventTopicID, readEnvelope(t, c).Event)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancelRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		RelayFeed(ctx, store, hub)
	}()
	require.Eventually(t, feed.subscribed, time.Second, 5*time.Millisecond)

	feed.push([]byte(`not json`))
	feed.push([]byte(`{"username":"bob","message":"hey","timestamp":"2025-05-06T07:08:09.010Z"}`))

	env := readEnvelope(t, c)
	assert.Equal(t, EventNewMessage, env.Event)
	assert.JSONEq(t, `{"username":"bob","message":"hey","timestamp":"2025-05-06T07:08:09.010Z"}`, string(env.Data))

	// The malformed entry must not have produced a frame of its own.
	require.NoError(t, c.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = c.ReadMessage()
	var netErr net.Error
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected no further frames, got %v", err)

	cancelRelay()
	select {
	case <-relayDone:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
	assert.True(t, feed.sub.isClosed())

	stopHub(t, hub, cancelHub)
}

func TestRelayFeedReturnsWhenFeedUnavailable(t *testing.T) {
	hub := NewHub()
	store := feedStore(t, &feedNetwork{subscribeErr: errors.New("UNAVAILABLE")})

	done := make(chan struct{})
	go func() {
		defer close(done)
		RelayFeed(context.Background(), store, hub)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay kept waiting on a feed that never opened")
	}
}
