package ws

import "encoding/json"

// MessageType constants for the WebSocket protocol.
const (
	// Server -> Client
	TypeOfflineProgress = "offline_progress"
	TypeOfflineComplete = "offline_complete"
	TypeError           = "error"
	TypePong            = "pong"

	// Client -> Server
	TypePing = "ping"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OfflineProgressPayload reports one completed subject during a bulk
// offline download.
type OfflineProgressPayload struct {
	Subject   string `json:"subject"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Stored    int    `json:"stored"`
	Failed    bool   `json:"failed,omitempty"`
}

// OfflineCompletePayload closes out a bulk offline download run.
type OfflineCompletePayload struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ErrorPayload carries protocol-level errors to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage marshals a payload into a typed message. Marshal failures
// produce a bare message with no payload; payload types here are all
// marshal-safe structs.
func NewMessage(msgType string, payload any) Message {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{Type: msgType}
	}
	return Message{Type: msgType, Payload: data}
}
