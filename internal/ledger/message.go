package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 layout stamped on every chat message.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrMalformedPayload is returned when a topic entry is not a chat message.
var ErrMalformedPayload = errors.New("malformed chat payload")

// ChatMessage is one immutable transcript entry as written to the topic.
type ChatMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewChatMessage stamps a message with the producer's clock in UTC.
func NewChatMessage(username, message string, at time.Time) ChatMessage {
	return ChatMessage{
		Username:  username,
		Message:   message,
		Timestamp: at.UTC().Format(TimestampLayout),
	}
}

// Encode serialises the message into the topic payload.
func (m ChatMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeChatMessage parses a topic payload. Entries written by other tools
// (plain text, JSON without chat fields) are rejected with ErrMalformedPayload.
func DecodeChatMessage(payload []byte) (ChatMessage, error) {
	var m ChatMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return ChatMessage{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(m.Username) == "" && strings.TrimSpace(m.Message) == "" {
		return ChatMessage{}, fmt.Errorf("%w: missing username and message", ErrMalformedPayload)
	}
	return m, nil
}
