package ws

import (
	"context"

	"go.uber.org/zap"
)

// Signaler relays ephemeral typing state to a conversation's room,
// excluding the originating connection. Nothing is stored, debounced or
// expired server-side; clients own the stop-typing cadence, and a user
// who drops mid-typing simply never emits a stop event.
type Signaler struct {
	hub *Hub
	bus *eventBus
}

func NewSignaler(hub *Hub, bus *eventBus) *Signaler {
	return &Signaler{hub: hub, bus: bus}
}

func (s *Signaler) Typing(ctx context.Context, conversationID int64, from *clientConn) {
	s.relay(ctx, conversationID, from, EventUserTyping, UserTypingBody{
		UserID:   from.identity.ID,
		Username: from.identity.Username,
	})
}

func (s *Signaler) StopTyping(ctx context.Context, conversationID int64, from *clientConn) {
	s.relay(ctx, conversationID, from, EventUserStoppedTyping, UserStoppedTypingBody{
		UserID: from.identity.ID,
	})
}

func (s *Signaler) relay(ctx context.Context, conversationID int64, from *clientConn, event string, body any) {
	payload, err := marshalEnvelope(event, body)
	if err != nil {
		zap.L().Warn("ws.marshal_presence", zap.Error(err))
		return
	}
	s.hub.Broadcast(conversationID, payload, from)
	s.bus.publish(ctx, conversationID, payload)
}
