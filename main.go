package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hedera-chat-agent/server/internal/agent"
	"github.com/hedera-chat-agent/server/internal/agent/graph"
	"github.com/hedera-chat-agent/server/internal/agent/graph/tools"
	"github.com/hedera-chat-agent/server/internal/agent/model"
	"github.com/hedera-chat-agent/server/internal/agent/repo"
	"github.com/hedera-chat-agent/server/internal/chat"
	"github.com/hedera-chat-agent/server/internal/core"
	"github.com/hedera-chat-agent/server/internal/ledger"
	"github.com/hedera-chat-agent/server/internal/oracle"
	"github.com/hedera-chat-agent/server/internal/router"
	"github.com/hedera-chat-agent/server/internal/transport/httpapi"
	"github.com/hedera-chat-agent/server/pkg/ethrpc"
	"github.com/hedera-chat-agent/server/pkg/hedera"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
	pkgredis "github.com/hedera-chat-agent/server/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig defines all configurable parameters of the chat server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Hedera hedera.Config   `ignored:"true"`
	Oracle ethrpc.Config   `ignored:"true"`
	Redis  pkgredis.Config `ignored:"true"`

	// Components
	Ledger       ledger.Config            `ignored:"true"`
	Chat         chat.Config              `ignored:"true"`
	HTTP         httpapi.Config           `ignored:"true"`
	Model        model.AgentModelConfig   `ignored:"true"`
	Prompt       model.AgentPromptConfig  `ignored:"true"`
	Conversation model.ConversationConfig `ignored:"true"`
}

// loadConfig binds each section on its own so package-owned keys such as
// TOPIC_ID keep their names instead of picking up a field prefix.
func loadConfig() (*AppConfig, error) {
	var cfg AppConfig
	sections := []struct {
		prefix string
		target any
	}{
		{"", &cfg},
		{"", &cfg.Hedera},
		{"", &cfg.Oracle},
		{"REDIS", &cfg.Redis},
		{"", &cfg.Ledger},
		{"", &cfg.Chat},
		{"", &cfg.HTTP},
		{"", &cfg.Model},
		{"", &cfg.Prompt},
		{"", &cfg.Conversation},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func main() {
	dotenvErr := godotenv.Load(".env")

	cfg, err := loadConfig()
	if err != nil {
		logx.Init()
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	if dotenvErr != nil {
		logx.Debug().Err(dotenvErr).Msg("No .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logx.Info().Str("network", cfg.Hedera.Network).Msg("Initializing Hedera Chat Server")

	// Ledger
	client, operator, err := cfg.Hedera.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Hedera client")
	}
	defer client.Close()

	network := ledger.NewHederaNetwork(client, operator.AccountID)
	store := ledger.NewStore(network, cfg.Ledger)
	if err := store.Initialize(ctx); err != nil {
		logx.Fatal().Err(err).Msg("Failed to start server")
	}

	hub := httpapi.NewHub()
	go hub.Run(ctx)
	go httpapi.RelayFeed(ctx, store, hub)

	// Price feeds
	eth, err := cfg.Oracle.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Str("url", cfg.Oracle.URL).Msg("Failed to initialise JSON-RPC client")
	}
	defer eth.Close()

	reader, err := oracle.NewAggregatorReader(eth)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to load aggregator ABI")
	}
	prices := oracle.NewClient(reader)

	// Agent (optional)
	var chatOpts []chat.Option
	if cfg.Model.Enabled() {
		runner, err := graph.BuildAgentGraph(ctx, graph.Config{
			Model:            cfg.Model,
			Prompt:           cfg.Prompt,
			Conversation:     cfg.Conversation,
			ConversationRepo: conversationRepository(ctx, cfg),
			Tools: tools.Deps{
				Ledger:            network,
				Prices:            prices,
				OperatorAccountID: network.OperatorID(),
			},
		})
		if err != nil {
			logx.Error().Err(err).Msg("AI Agent initialization failed; chat will work without AI features")
		} else {
			chatOpts = append(chatOpts, chat.WithAgent(agent.NewExecutor(runner)))
			logx.Info().Str("model", cfg.Model.Model).Msg("AI Agent is ready")
		}
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not configured. AI features disabled")
	}

	svc := chat.NewService(store, router.New(prices), cfg.Chat, chatOpts...)
	srv := httpapi.NewServer(cfg.HTTP, svc, prices, hub)

	logx.Info().
		Str("topic_id", store.TopicID()).
		Bool("ai", svc.AgentReady()).
		Strs("pairs", prices.Pairs()).
		Msg("Server components ready")

	if err := srv.ListenAndServe(ctx); err != nil {
		logx.Fatal().Err(err).Msg("HTTP server stopped")
	}
	logx.Info().Msg("Server stopped")
}

func conversationRepository(ctx context.Context, cfg *AppConfig) model.ConversationRepository {
	if !cfg.Redis.Enabled() {
		logx.Info().Msg("REDIS_URL not set; using in-process conversation memory")
		return repo.NewMemoryConversationRepository(cfg.Conversation.TTL)
	}

	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("Redis unavailable; falling back to in-process conversation memory")
		return repo.NewMemoryConversationRepository(cfg.Conversation.TTL)
	}
	logx.Info().Msg("Connected to Redis successfully")
	return repo.NewRedisConversationRepository(rdb, cfg.Conversation.TTL)
}
