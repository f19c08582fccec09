package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hedera-chat-agent/server/internal/chat"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Warn().Err(err).Msg("Failed to upgrade websocket")
		return
	}

	conn := s.hub.NewConnection(ws)
	ws.SetReadLimit(s.ws.MaxMessageSize)

	// Queue the topic announcement before the connection can receive
	// broadcasts so it is always the first frame.
	if err := s.hub.SendEvent(conn, EventTopicID, nullableTopic(s.chat.TopicID())); err != nil {
		logx.Warn().Err(err).Str("connection_id", conn.ID).Msg("Failed to queue topic id")
	}
	s.hub.Register(conn)

	go s.writePump(conn)
	go s.readPump(conn)
}

func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(s.ws.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(s.ws.ReadTimeout))
	})

	for {
		_, frame, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logx.Warn().Err(err).Str("connection_id", conn.ID).Msg("Websocket read failed")
			}
			return
		}
		s.handleFrame(conn, frame)
	}
}

func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.ws.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-conn.send:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.ws.WriteTimeout))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logx.Debug().Err(err).Str("connection_id", conn.ID).Msg("Websocket write failed")
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.ws.WriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleFrame(conn *Connection, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		s.sendError(conn, "invalid JSON message")
		return
	}

	switch env.Event {
	case EventChatMessage:
		var req chatRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			s.sendError(conn, "invalid chatMessage payload")
			return
		}
		// The reply reaches every client through the topic feed, so the turn
		// runs off the read loop.
		go s.runSocketTurn(conn, req)
	default:
		s.sendError(conn, "unknown event: "+env.Event)
	}
}

func (s *Server) runSocketTurn(conn *Connection, req chatRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TurnTimeout)
	defer cancel()

	if _, err := s.chat.Chat(ctx, req.Username, req.Message); err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			s.sendError(conn, "Message is required")
			return
		}
		logx.Error().Err(err).Str("connection_id", conn.ID).Msg("Websocket chat turn failed")
		s.sendError(conn, "Error procesando tu mensaje")
	}
}

func (s *Server) sendError(conn *Connection, message string) {
	if err := s.hub.SendEvent(conn, EventError, errorEvent{Message: message}); err != nil && !errors.Is(err, ErrConnectionClosed) {
		logx.Warn().Err(err).Str("connection_id", conn.ID).Msg("Failed to queue error event")
	}
}
