package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	errx "github.com/hedera-chat-agent/server/internal/core/error"
	"github.com/hedera-chat-agent/server/internal/metrics"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
)

var (
	ErrAlreadyInitialized = errors.New("message store already initialized")
	ErrNotReady           = errors.New("message store not ready")
	ErrNoTopicInReceipt   = errors.New("failed to create topic: no topic id in receipt")
	ErrNoNetwork          = errors.New("ledger network not configured")
)

// State is the topic lifecycle of a Store.
type State int

const (
	StateUninitialized State = iota
	StateCreating
	StateResolvingExisting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateCreating:
		return "CREATING"
	case StateResolvingExisting:
		return "RESOLVING_EXISTING"
	case StateReady:
		return "READY"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config controls topic resolution and subscription retries.
type Config struct {
	TopicID             string        `envconfig:"TOPIC_ID"`
	TopicMemo           string        `envconfig:"TOPIC_MEMO" default:"Hedera Chat Room"`
	PropagationDelay    time.Duration `envconfig:"TOPIC_PROPAGATION_DELAY" default:"3s"`
	SubscribeLookback   time.Duration `envconfig:"SUBSCRIBE_LOOKBACK" default:"30s"`
	SubscribeMaxRetries int           `envconfig:"SUBSCRIBE_MAX_RETRIES" default:"5"`
	BackoffBase         time.Duration `envconfig:"SUBSCRIBE_BACKOFF_BASE" default:"1s"`
	BackoffCap          time.Duration `envconfig:"SUBSCRIBE_BACKOFF_CAP" default:"5s"`
}

// Store appends chat messages to a single consensus topic and relays the
// topic's live feed. The topic is resolved once and never rotated.
type Store struct {
	network Network
	cfg     Config
	backoff Backoff
	sleep   SleepFunc
	now     func() time.Time

	mu      sync.RWMutex
	state   State
	topicID string
}

type Option func(*Store)

// WithSleep replaces the wait used for propagation delay and subscribe backoff.
func WithSleep(fn SleepFunc) Option {
	return func(s *Store) { s.sleep = fn }
}

// WithClock replaces the clock used to compute the subscription start time.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func NewStore(network Network, cfg Config, opts ...Option) *Store {
	s := &Store{
		network: network,
		cfg:     cfg,
		backoff: Backoff{Base: cfg.BackoffBase, Cap: cfg.BackoffCap},
		sleep:   Sleep,
		now:     time.Now,
		state:   StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize resolves the active topic: the configured one when present,
// otherwise a freshly created one.
func (s *Store) Initialize(ctx context.Context) error {
	if s.cfg.TopicID == "" {
		_, err := s.CreateTopic(ctx)
		return err
	}

	if err := s.transition(StateUninitialized, StateResolvingExisting); err != nil {
		return err
	}
	id, err := s.network.ResolveTopic(ctx, s.cfg.TopicID)
	if err != nil {
		s.fail()
		return fmt.Errorf("resolve topic %s: %w", s.cfg.TopicID, errx.WrapLedger(err))
	}
	s.ready(id)
	logx.Info().Str("topic_id", id).Msg("Using existing topic")
	return nil
}

// CreateTopic creates the session topic and waits for it to propagate. It is
// only valid on an uninitialized store.
func (s *Store) CreateTopic(ctx context.Context) (string, error) {
	if err := s.transition(StateUninitialized, StateCreating); err != nil {
		return "", err
	}

	id, err := s.network.CreateTopic(ctx, s.cfg.TopicMemo)
	if err == nil && id == "" {
		err = ErrNoTopicInReceipt
	}
	if err != nil {
		s.fail()
		logx.Error().Err(err).Msg("Error creating topic")
		return "", fmt.Errorf("create topic: %w", errx.WrapLedger(err))
	}

	logx.Info().Str("topic_id", id).Msg("New topic created")
	logx.Warn().Str("topic_id", id).Msg("Add TOPIC_ID=" + id + " to your .env file to reuse this topic")

	// Freshly created topics are not immediately visible to every node.
	if s.cfg.PropagationDelay > 0 {
		logx.Info().Dur("delay", s.cfg.PropagationDelay).Msg("Waiting for topic to propagate")
		if err := s.sleep(ctx, s.cfg.PropagationDelay); err != nil {
			s.fail()
			return "", fmt.Errorf("wait for topic propagation: %w", err)
		}
	}

	s.ready(id)
	return id, nil
}

// SendMessage appends msg to the topic and waits for consensus. Failures are
// returned to the caller; nothing is retried here.
func (s *Store) SendMessage(ctx context.Context, msg ChatMessage) error {
	topicID, err := s.readyTopic()
	if err != nil {
		return err
	}

	payload, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode chat message: %w", err)
	}

	if err := s.network.Submit(ctx, topicID, payload); err != nil {
		metrics.LedgerMessagesTotal.WithLabelValues("failed").Inc()
		logx.Error().Err(err).Str("topic_id", topicID).Str("username", msg.Username).Msg("Error sending message")
		return fmt.Errorf("submit message to topic %s: %w", topicID, errx.WrapLedger(err))
	}

	metrics.LedgerMessagesTotal.WithLabelValues("sent").Inc()
	logx.Debug().Str("topic_id", topicID).Str("username", msg.Username).Msg("Message sent to topic")
	return nil
}

// SubscribeToMessages opens the live feed starting SubscribeLookback in the
// past. Establishment is retried with capped exponential backoff; once open,
// entries that fail to decode are logged and skipped.
func (s *Store) SubscribeToMessages(ctx context.Context, onMessage func(ChatMessage)) (Subscription, error) {
	topicID, err := s.readyTopic()
	if err != nil {
		return nil, err
	}
	if onMessage == nil {
		return nil, fmt.Errorf("subscribe: nil callback")
	}

	maxRetries := s.cfg.SubscribeMaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	handler := s.isolate(topicID, onMessage)

	for attempt := 1; ; attempt++ {
		start := s.now().Add(-s.cfg.SubscribeLookback)
		sub, err := s.network.Subscribe(ctx, topicID, start, handler)
		if err == nil {
			logx.Info().Str("topic_id", topicID).Time("start", start).Msg("Successfully subscribed to topic")
			return sub, nil
		}

		if attempt >= maxRetries {
			logx.Error().Err(err).Str("topic_id", topicID).Int("attempts", attempt).Msg("Failed to subscribe after max retries")
			return nil, fmt.Errorf("subscribe to topic %s after %d attempts: %w", topicID, attempt, errx.WrapLedger(err))
		}

		wait := s.backoff.Delay(attempt)
		metrics.SubscribeRetriesTotal.Inc()
		logx.Warn().Err(err).
			Str("topic_id", topicID).
			Int("attempt", attempt).
			Int("max_retries", maxRetries).
			Dur("wait", wait).
			Msg("Error subscribing to topic, retrying")

		if err := s.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("subscribe to topic %s: %w", topicID, err)
		}
	}
}

// isolate wraps the caller's callback so a single bad entry never tears down
// the feed.
func (s *Store) isolate(topicID string, onMessage func(ChatMessage)) func([]byte) {
	return func(payload []byte) {
		defer func() {
			if r := recover(); r != nil {
				metrics.FeedEntriesTotal.WithLabelValues("panic").Inc()
				logx.Error().Interface("panic", r).Str("topic_id", topicID).Msg("Message callback panicked")
			}
		}()

		msg, err := DecodeChatMessage(payload)
		if err != nil {
			metrics.FeedEntriesTotal.WithLabelValues("malformed").Inc()
			logx.Warn().Err(err).Str("topic_id", topicID).Int("bytes", len(payload)).Msg("Error parsing message")
			return
		}
		metrics.FeedEntriesTotal.WithLabelValues("delivered").Inc()
		onMessage(msg)
	}
}

// TopicID returns the active topic id, or "" before the store is ready.
func (s *Store) TopicID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		return ""
	}
	return s.topicID
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ready reports whether messages can be sent.
func (s *Store) Ready() bool {
	return s.State() == StateReady
}

func (s *Store) readyTopic() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		return "", fmt.Errorf("%w (state %s)", ErrNotReady, s.state)
	}
	return s.topicID, nil
}

func (s *Store) transition(from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.network == nil {
		s.state = StateFailed
		return ErrNoNetwork
	}
	if s.state != from {
		return fmt.Errorf("%w (state %s)", ErrAlreadyInitialized, s.state)
	}
	s.state = to
	return nil
}

func (s *Store) ready(topicID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicID = topicID
	s.state = StateReady
}

func (s *Store) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
}
