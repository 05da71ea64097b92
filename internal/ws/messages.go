package ws

import (
	"encoding/json"
	"strconv"
)

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "chat/join"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// Closed set of inbound events. The reader dispatches over these
// exhaustively; anything else earns an "error" reply and the connection
// stays alive.
const (
	EventJoin       = "chat/join"
	EventLeave      = "chat/leave"
	EventTyping     = "chat/typing"
	EventStopTyping = "chat/stop-typing"
)

// Events pushed by the server.
const (
	EventNewMessage        = "chat/new-message"
	EventUserTyping        = "chat/user-typing"
	EventUserStoppedTyping = "chat/user-stopped-typing"
	EventError             = "error"
)

// RoomKey derives the fan-out key for a conversation. Join, leave,
// presence and message delivery all go through this one derivation so
// they always target the same room.
func RoomKey(conversationID int64) string {
	return "conv_" + strconv.FormatInt(conversationID, 10)
}

// ──────────────────────────── Request / Response DTOs ─────────────────────────

// JoinBody is the body for "chat/join" and "chat/leave".
type JoinBody struct {
	ConversationID int64 `json:"conversation_id"`
}

// TypingBody is the body for "chat/typing" and "chat/stop-typing".
type TypingBody struct {
	ConversationID int64 `json:"conversation_id"`
}

// UserTypingBody is pushed to the other room members while a user types.
type UserTypingBody struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type UserStoppedTypingBody struct {
	UserID int64 `json:"user_id"`
}

// Empty ACK body (useful for many handlers).
type AckBody struct{}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}

// marshalEnvelope builds the wire form of a server-pushed event.
func marshalEnvelope(event string, body any) ([]byte, error) {
	return json.Marshal(map[string]any{
		"event": event,
		"body":  body,
	})
}
