package httpapi

import "encoding/json"

// Realtime event names.
const (
	EventTopicID     = "topicId"
	EventChatMessage = "chatMessage"
	EventNewMessage  = "newMessage"
	EventError       = "error"
)

// Envelope is the frame exchanged on the websocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type chatRequest struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type errorEvent struct {
	Message string `json:"message"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
