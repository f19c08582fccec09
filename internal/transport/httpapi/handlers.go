package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hedera-chat-agent/server/internal/chat"
	"github.com/hedera-chat-agent/server/internal/ledger"
	"github.com/hedera-chat-agent/server/internal/oracle"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
)

const (
	maxChatBodyBytes = 64 << 10
	historyNotice    = "Para ver el historial completo, consulta el topic en Hedera Mirror Node"
)

type healthResponse struct {
	Status    string  `json:"status"`
	Hedera    bool    `json:"hedera"`
	AI        bool    `json:"ai"`
	TopicID   *string `json:"topicId"`
	Timestamp string  `json:"timestamp"`
}

type messagesResponse struct {
	TopicID *string `json:"topicId"`
	Message string  `json:"message"`
}

type pricesResponse struct {
	Success   bool                      `json:"success"`
	Data      []oracle.PriceFeedReading `json:"data"`
	Timestamp string                    `json:"timestamp"`
}

func nullableTopic(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func now() string {
	return time.Now().UTC().Format(ledger.TimestampLayout)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Hedera:    s.chat.LedgerReady(),
		AI:        s.chat.AgentReady(),
		TopicID:   nullableTopic(s.chat.TopicID()),
		Timestamp: now(),
	})
}

func (s *Server) postChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	turn, err := s.chat.Chat(r.Context(), req.Username, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "Message is required")
			return
		}
		logx.Error().Err(err).Msg("Chat turn failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messagesResponse{
		TopicID: nullableTopic(s.chat.TopicID()),
		Message: historyNotice,
	})
}

func (s *Server) allPrices(w http.ResponseWriter, r *http.Request) {
	readings := s.prices.GetAllPrices(r.Context())
	if readings == nil {
		readings = []oracle.PriceFeedReading{}
	}
	writeJSON(w, http.StatusOK, pricesResponse{
		Success:   len(readings) > 0,
		Data:      readings,
		Timestamp: now(),
	})
}

func (s *Server) price(w http.ResponseWriter, r *http.Request) {
	pair := chi.URLParam(r, "base") + "/" + chi.URLParam(r, "quote")

	reading, err := s.prices.GetPrice(r.Context(), pair)
	if err != nil {
		var unknown *oracle.UnknownPairError
		if errors.As(err, &unknown) {
			writeError(w, http.StatusNotFound, unknown.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reading)
}
