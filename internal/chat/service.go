package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hedera-chat-agent/server/internal/agent/model"
	errx "github.com/hedera-chat-agent/server/internal/core/error"
	"github.com/hedera-chat-agent/server/internal/ledger"
	"github.com/hedera-chat-agent/server/internal/router"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
)

var ErrEmptyMessage = errors.New("message is required")

type Config struct {
	DefaultUsername string `envconfig:"CHAT_DEFAULT_USERNAME" default:"Usuario"`
	AgentName       string `envconfig:"CHAT_AGENT_NAME" default:"AI Agent 🤖"`
}

// Store is where transcript entries are appended.
type Store interface {
	SendMessage(ctx context.Context, msg ledger.ChatMessage) error
	TopicID() string
	Ready() bool
}

// Router answers what it can without the agent.
type Router interface {
	Route(ctx context.Context, utterance string) router.Result
}

// Agent is the tool-calling fallback for utterances the router delegates.
type Agent interface {
	Invoke(ctx context.Context, conversationID, utterance string) (*model.AgentResult, error)
}

// Turn is one user message and the assistant's answer to it.
type Turn struct {
	UserMessage ledger.ChatMessage     `json:"userMessage"`
	AIResponse  ledger.ChatMessage     `json:"aiResponse"`
	ToolCalls   []model.ToolInvocation `json:"toolCalls,omitempty"`
}

type Service struct {
	store  Store
	router Router
	agent  Agent
	cfg    Config
	now    func() time.Time
}

type Option func(*Service)

// WithAgent enables delegation to the agent. Without it delegated turns get
// an "agent unavailable" reply.
func WithAgent(a Agent) Option {
	return func(s *Service) { s.agent = a }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

func NewService(store Store, r Router, cfg Config, opts ...Option) *Service {
	if cfg.DefaultUsername == "" {
		cfg.DefaultUsername = "Usuario"
	}
	if cfg.AgentName == "" {
		cfg.AgentName = "AI Agent 🤖"
	}
	s := &Service{store: store, router: r, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AgentReady reports whether delegated turns reach a model.
func (s *Service) AgentReady() bool {
	return s.agent != nil
}

func (s *Service) TopicID() string {
	return s.store.TopicID()
}

func (s *Service) LedgerReady() bool {
	return s.store.Ready()
}

// Chat runs one turn. Both transcript writes are best effort: a failed write
// is logged and the turn still completes, so the caller always gets an answer
// once the message itself is valid.
func (s *Service) Chat(ctx context.Context, username, message string) (*Turn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = s.cfg.DefaultUsername
	}

	userMsg := ledger.NewChatMessage(username, message, s.now())
	if err := s.store.SendMessage(ctx, userMsg); err != nil {
		logx.Error().Err(err).Str("username", username).Msg("User message was NOT written to the ledger; continuing turn")
	}

	turn := &Turn{UserMessage: userMsg}
	reply := s.answer(ctx, username, message, turn)

	turn.AIResponse = ledger.NewChatMessage(s.cfg.AgentName, reply, s.now())
	if err := s.store.SendMessage(ctx, turn.AIResponse); err != nil {
		logx.Error().Err(err).Str("username", s.cfg.AgentName).Msg("Assistant reply was NOT written to the ledger; returning it anyway")
	}
	return turn, nil
}

func (s *Service) answer(ctx context.Context, username, message string, turn *Turn) string {
	routed := s.router.Route(ctx, message)
	if routed.Kind == router.Answered {
		logx.Debug().Str("pair", routed.Pair).Msg("Answered by price router")
		return routed.Reply
	}

	if s.agent == nil {
		return errx.AgentUnavailableMessage
	}
	res, err := s.agent.Invoke(ctx, username, message)
	if err != nil {
		return errx.UserMessage(err)
	}
	turn.ToolCalls = res.ToolCalls
	return res.Text
}
