package ws

import (
	"context"

	"go.uber.org/zap"

	"chatsyncgo/internal/services/chat"
)

// Bridge links the durable write path to the realtime fan-out. Deliver is
// invoked by the REST message handler strictly after the insert
// committed, so the broadcast payload is always the canonical persisted
// record.
type Bridge struct {
	hub *Hub
	bus *eventBus
}

func NewBridge(hub *Hub, bus *eventBus) *Bridge {
	return &Bridge{hub: hub, bus: bus}
}

// Deliver pushes the persisted message to every current member of the
// conversation's room, the sender's own connections included: clients
// reconcile their optimistic state by message id. An empty room is a
// silent miss — the record stays retrievable through the history
// endpoint.
func (b *Bridge) Deliver(ctx context.Context, msg *chat.MessageDTO) {
	payload, err := marshalEnvelope(EventNewMessage, msg)
	if err != nil {
		zap.L().Error("ws.marshal_message", zap.Error(err))
		return
	}

	if n := b.hub.Broadcast(msg.ConversationID, payload, nil); n == 0 {
		zap.L().Debug("ws.delivery_miss",
			zap.Int64("conversation_id", msg.ConversationID),
			zap.Int64("message_id", msg.ID))
	}
	b.bus.publish(ctx, msg.ConversationID, payload)
}
