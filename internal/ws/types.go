package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	// client -> server
	MessageTypeMove    MessageType = "move"
	MessageTypeClick   MessageType = "click"
	MessageTypeNewGame MessageType = "newGame"
	MessageTypeResign  MessageType = "resign"

	// server -> client
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeMatchFound MessageType = "matchFound"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MovePayload carries either a from/to pair or a square-pair token.
type MovePayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	Move string `json:"move,omitempty"`
}

// Token returns the move as a square-pair token.
func (p MovePayload) Token() string {
	if p.Move != "" {
		return p.Move
	}
	return p.From + p.To
}

type ClickPayload struct {
	Square string `json:"square"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// NewMessage encodes payload into a message of type t.
func NewMessage(t MessageType, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: raw}, nil
}

// ErrorMessage wraps err for the client.
func ErrorMessage(err error) Message {
	raw, _ := json.Marshal(ErrorPayload{Error: err.Error()})
	return Message{Type: MessageTypeError, Payload: raw}
}
