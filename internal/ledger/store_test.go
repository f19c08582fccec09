package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscription struct {
	closed bool
}

func (s *fakeSubscription) Close() { s.closed = true }

type fakeNetwork struct {
	mu sync.Mutex

	createID  string
	createErr error
	submitErr error

	// subscribeErrs are returned in order; once exhausted Subscribe succeeds.
	subscribeErrs []error

	createCalls    int
	subscribeCalls int
	submitted      [][]byte
	starts         []time.Time
	handler        func([]byte)
}

func (f *fakeNetwork) CreateTopic(ctx context.Context, memo string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	return f.createID, f.createErr
}

func (f *fakeNetwork) ResolveTopic(ctx context.Context, topicID string) (string, error) {
	if topicID == "bogus" {
		return "", errors.New("invalid topic id")
	}
	return topicID, nil
}

func (f *fakeNetwork) Submit(ctx context.Context, topicID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, payload)
	return nil
}

func (f *fakeNetwork) Subscribe(ctx context.Context, topicID string, start time.Time, onPayload func([]byte)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribeCalls++
	f.starts = append(f.starts, start)
	if len(f.subscribeErrs) > 0 {
		err := f.subscribeErrs[0]
		f.subscribeErrs = f.subscribeErrs[1:]
		return nil, err
	}
	f.handler = onPayload
	return &fakeSubscription{}, nil
}

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func testConfig() Config {
	return Config{
		TopicMemo:           "Hedera Chat Room",
		PropagationDelay:    3 * time.Second,
		SubscribeLookback:   30 * time.Second,
		SubscribeMaxRetries: 5,
		BackoffBase:         time.Second,
		BackoffCap:          5 * time.Second,
	}
}

func readyStore(t *testing.T, net *fakeNetwork, rec *sleepRecorder, opts ...Option) *Store {
	t.Helper()
	cfg := testConfig()
	cfg.TopicID = "0.0.5005"
	opts = append([]Option{WithSleep(rec.sleep)}, opts...)
	s := NewStore(net, cfg, opts...)
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestInitializeCreatesTopic(t *testing.T) {
	net := &fakeNetwork{createID: "0.0.4242"}
	rec := &sleepRecorder{}
	s := NewStore(net, testConfig(), WithSleep(rec.sleep))

	assert.Equal(t, StateUninitialized, s.State())
	assert.Equal(t, "", s.TopicID())

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, "0.0.4242", s.TopicID())
	assert.Equal(t, []time.Duration{3 * time.Second}, rec.delays, "propagation delay must be waited once")
	assert.Equal(t, 1, net.createCalls)
}

func TestInitializeZeroPropagationDelay(t *testing.T) {
	net := &fakeNetwork{createID: "0.0.4242"}
	rec := &sleepRecorder{}
	cfg := testConfig()
	cfg.PropagationDelay = 0
	s := NewStore(net, cfg, WithSleep(rec.sleep))

	require.NoError(t, s.Initialize(context.Background()))
	assert.Empty(t, rec.delays)
}

func TestInitializeReusesConfiguredTopic(t *testing.T) {
	net := &fakeNetwork{}
	rec := &sleepRecorder{}
	s := readyStore(t, net, rec)

	assert.Equal(t, "0.0.5005", s.TopicID())
	assert.Zero(t, net.createCalls)
	assert.Empty(t, rec.delays)
}

func TestInitializeTwiceFails(t *testing.T) {
	s := readyStore(t, &fakeNetwork{}, &sleepRecorder{})
	err := s.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, StateReady, s.State())
}

func TestCreateTopicFailureIsTerminal(t *testing.T) {
	net := &fakeNetwork{createErr: errors.New("INSUFFICIENT_PAYER_BALANCE")}
	s := NewStore(net, testConfig(), WithSleep((&sleepRecorder{}).sleep))

	err := s.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSUFFICIENT_PAYER_BALANCE")
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, "", s.TopicID())

	_, err = s.CreateTopic(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestCreateTopicEmptyReceipt(t *testing.T) {
	s := NewStore(&fakeNetwork{}, testConfig(), WithSleep((&sleepRecorder{}).sleep))
	_, err := s.CreateTopic(context.Background())
	assert.ErrorIs(t, err, ErrNoTopicInReceipt)
	assert.Equal(t, StateFailed, s.State())
}

func TestResolveExistingFailure(t *testing.T) {
	cfg := testConfig()
	cfg.TopicID = "bogus"
	s := NewStore(&fakeNetwork{}, cfg)
	require.Error(t, s.Initialize(context.Background()))
	assert.Equal(t, StateFailed, s.State())
}

func TestNilNetwork(t *testing.T) {
	s := NewStore(nil, testConfig())
	assert.ErrorIs(t, s.Initialize(context.Background()), ErrNoNetwork)
	assert.Equal(t, StateFailed, s.State())
}

func TestSendMessage(t *testing.T) {
	net := &fakeNetwork{}
	s := readyStore(t, net, &sleepRecorder{})

	msg := NewChatMessage("alice", "hola", time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC))
	require.NoError(t, s.SendMessage(context.Background(), msg))

	require.Len(t, net.submitted, 1)
	assert.JSONEq(t, `{"username":"alice","message":"hola","timestamp":"2025-01-02T03:04:05.006Z"}`, string(net.submitted[0]))
}

func TestSendMessageBeforeReady(t *testing.T) {
	s := NewStore(&fakeNetwork{}, testConfig())
	err := s.SendMessage(context.Background(), ChatMessage{Username: "a", Message: "b"})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSendMessagePropagatesFailure(t *testing.T) {
	cause := errors.New("BUSY")
	net := &fakeNetwork{submitErr: cause}
	s := readyStore(t, net, &sleepRecorder{})

	err := s.SendMessage(context.Background(), ChatMessage{Username: "a", Message: "b"})
	assert.ErrorIs(t, err, cause)
}

func TestSubscribeBackoffSequence(t *testing.T) {
	failure := errors.New("UNAVAILABLE: topic not found")
	net := &fakeNetwork{subscribeErrs: []error{failure, failure, failure, failure, failure, failure}}
	rec := &sleepRecorder{}
	s := readyStore(t, net, rec)

	sub, err := s.SubscribeToMessages(context.Background(), func(ChatMessage) {})
	require.Error(t, err)
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, failure)

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}, rec.delays)
	assert.Equal(t, 5, net.subscribeCalls)
}

func TestSubscribeRecoversAfterFailures(t *testing.T) {
	failure := errors.New("UNAVAILABLE")
	net := &fakeNetwork{subscribeErrs: []error{failure, failure}}
	rec := &sleepRecorder{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := readyStore(t, net, rec, WithClock(func() time.Time { return now }))

	sub, err := s.SubscribeToMessages(context.Background(), func(ChatMessage) {})
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
	assert.Equal(t, 3, net.subscribeCalls)
	for _, start := range net.starts {
		assert.Equal(t, now.Add(-30*time.Second), start)
	}
}

func TestSubscribeStopsOnCancel(t *testing.T) {
	net := &fakeNetwork{subscribeErrs: []error{errors.New("UNAVAILABLE")}}
	rec := &sleepRecorder{}
	s := readyStore(t, net, rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.SubscribeToMessages(ctx, func(ChatMessage) {})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, net.subscribeCalls)
}

func TestSubscribeIsolatesMalformedEntries(t *testing.T) {
	net := &fakeNetwork{}
	s := readyStore(t, net, &sleepRecorder{})

	var got []ChatMessage
	sub, err := s.SubscribeToMessages(context.Background(), func(m ChatMessage) {
		got = append(got, m)
	})
	require.NoError(t, err)
	require.NotNil(t, net.handler)

	net.handler([]byte("{not json"))
	net.handler([]byte(`{"username":"bob","message":"hi","timestamp":"2025-01-01T00:00:00.000Z"}`))

	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Username)

	// still open: later entries keep flowing
	net.handler([]byte(`{"username":"carol","message":"hey","timestamp":"2025-01-01T00:00:01.000Z"}`))
	assert.Len(t, got, 2)
	assert.False(t, sub.(*fakeSubscription).closed)
}

func TestSubscribeRecoversCallbackPanic(t *testing.T) {
	net := &fakeNetwork{}
	s := readyStore(t, net, &sleepRecorder{})

	calls := 0
	_, err := s.SubscribeToMessages(context.Background(), func(m ChatMessage) {
		calls++
		if m.Message == "boom" {
			panic("callback exploded")
		}
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		net.handler([]byte(`{"username":"x","message":"boom"}`))
	})
	net.handler([]byte(`{"username":"x","message":"fine"}`))
	assert.Equal(t, 2, calls)
}

func TestSubscribeBeforeReady(t *testing.T) {
	s := NewStore(&fakeNetwork{}, testConfig())
	_, err := s.SubscribeToMessages(context.Background(), func(ChatMessage) {})
	assert.ErrorIs(t, err, ErrNotReady)
}
