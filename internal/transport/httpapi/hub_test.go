package httpapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hedera-chat-agent/server/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func stopHub(t *testing.T, hub *Hub, cancel context.CancelFunc) {
	t.Helper()
	cancel()
	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
}

func TestHubBroadcastAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, cancel := startHub(t)
	a, b := hub.NewConnection(nil), hub.NewConnection(nil)
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.BroadcastEvent(EventNewMessage, ledger.ChatMessage{Username: "alice", Message: "hola"}))
	for _, c := range []*Connection{a, b} {
		select {
		case frame := <-c.send:
			assert.JSONEq(t, `{"event":"newMessage","data":{"username":"alice","message":"hola","timestamp":""}}`, string(frame))
		case <-time.After(time.Second):
			t.Fatal("no broadcast frame")
		}
	}

	stopHub(t, hub, cancel)
	_, open := <-a.send
	assert.False(t, open)
	assert.Zero(t, hub.ConnectionCount())

	late := hub.NewConnection(nil)
	hub.Register(late)
	_, open = <-late.send
	assert.False(t, open)
	assert.ErrorIs(t, hub.SendEvent(late, EventError, errorEvent{Message: "x"}), ErrConnectionClosed)
}

func TestHubDropsSlowClient(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, cancel := startHub(t)
	defer stopHub(t, hub, cancel)

	slow := hub.NewConnection(nil)
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i <= sendBufferSize; i++ {
		hub.Broadcast([]byte(`{}`))
	}
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, hub.SendEvent(slow, EventError, errorEvent{}), ErrConnectionClosed)
}

func readEnvelope(t *testing.T, c *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, c.ReadJSON(&env))
	return env
}

func sendEnvelope(t *testing.T, c *websocket.Conn, event string, data any) {
	t.Helper()
	frame, err := encodeEvent(event, data)
	require.NoError(t, err)
	require.NoError(t, c.WriteMessage(websocket.TextMessage, frame))
}

func TestWebSocketSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, cancel := startHub(t)
	fc := &fakeChat{topicID: "0.0.5005"}
	srv := NewServer(Config{TurnTimeout: time.Second, WS: WSConfig{PingInterval: time.Hour}}, fc, nil, hub)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	env := readEnvelope(t, c)
	assert.Equal(t, EventTopicID, env.Event)
	assert.JSONEq(t, `"0.0.5005"`, string(env.Data))

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	entry := ledger.ChatMessage{Username: "bob", Message: "hey", Timestamp: "2025-05-06T07:08:09.010Z"}
	require.NoError(t, hub.BroadcastEvent(EventNewMessage, entry))
	env = readEnvelope(t, c)
	assert.Equal(t, EventNewMessage, env.Event)
	var got ledger.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, entry, got)

	sendEnvelope(t, c, EventChatMessage, chatRequest{Username: "alice", Message: "hola"})
	require.Eventually(t, func() bool { return fc.callCount() == 1 }, time.Second, 5*time.Millisecond)

	sendEnvelope(t, c, EventChatMessage, chatRequest{Username: "alice", Message: " "})
	env = readEnvelope(t, c)
	assert.Equal(t, EventError, env.Event)
	assert.JSONEq(t, `{"message":"Message is required"}`, string(env.Data))

	sendEnvelope(t, c, "typing", nil)
	env = readEnvelope(t, c)
	assert.Equal(t, EventError, env.Event)
	assert.JSONEq(t, `{"message":"unknown event: typing"}`, string(env.Data))

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, time.Second, 5*time.Millisecond)

	stopHub(t, hub, cancel)
}

func TestWebSocketClosedOnHubShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, cancel := startHub(t)
	srv := NewServer(Config{WS: WSConfig{PingInterval: time.Hour}}, &fakeChat{}, nil, hub)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer c.Close()

	env := readEnvelope(t, c)
	assert.Equal(t, EventTopicID, env.Event)
	assert.JSONEq(t, `null`, string(env.Data))
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	stopHub(t, hub, cancel)

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = c.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
