package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/hedera-chat-agent/server/internal/chat"
	"github.com/hedera-chat-agent/server/internal/oracle"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChatService runs chat turns and reports component readiness.
type ChatService interface {
	Chat(ctx context.Context, username, message string) (*chat.Turn, error)
	AgentReady() bool
	LedgerReady() bool
	TopicID() string
}

type PriceOracle interface {
	GetPrice(ctx context.Context, pair string) (*oracle.PriceFeedReading, error)
	GetAllPrices(ctx context.Context) []oracle.PriceFeedReading
}

// Server is the HTTP and websocket façade over the chat service.
type Server struct {
	cfg      Config
	ws       WSConfig
	chat     ChatService
	prices   PriceOracle
	hub      *Hub
	upgrader websocket.Upgrader
	router   chi.Router
}

func NewServer(cfg Config, chatSvc ChatService, prices PriceOracle, hub *Hub) *Server {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		cfg:    cfg,
		ws:     cfg.WS.withDefaults(),
		chat:   chatSvc,
		prices: prices,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(instrument)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(accessLog(logx.With("http")))
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", s.health)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.postChat)
		r.Get("/messages", s.listMessages)
		if s.prices != nil {
			r.Get("/prices", s.allPrices)
			r.Get("/prices/{base}/{quote}", s.price)
		}
	})

	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Int("port", s.cfg.Port).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownTimeout := s.cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logx.Info().Msg("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
