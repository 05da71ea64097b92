package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// eventBus replicates room events across service instances through Redis
// pub/sub. It guarantees **exactly one** Redis subscription per
// "conv:<id>:events" channel ― no matter how many websocket clients join
// the same conversation locally. Frames carry the origin instance id so
// the publisher's own members, already served by the local broadcast, are
// never served twice.
//
// A nil *eventBus is valid and turns every method into a no-op, for
// single-instance deployments and tests without Redis.
type eventBus struct {
	rdb    *redis.Client
	hub    *Hub
	origin string
	mu     sync.Mutex
	subs   map[int64]*subEntry // conversationID ➜ subscription data
}

type subEntry struct {
	refCnt int
	cancel context.CancelFunc
}

type busFrame struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func newEventBus(rdb *redis.Client, hub *Hub) *eventBus {
	if rdb == nil {
		return nil
	}
	return &eventBus{
		rdb:    rdb,
		hub:    hub,
		origin: uuid.NewString(),
		subs:   make(map[int64]*subEntry),
	}
}

func channelFor(conversationID int64) string {
	return fmt.Sprintf("conv:%d:events", conversationID)
}

// publish pushes an already-marshaled envelope onto the conversation's
// channel. Failures are logged and swallowed: cross-instance delivery is
// best-effort and must never affect the committed write.
func (b *eventBus) publish(ctx context.Context, conversationID int64, payload []byte) {
	if b == nil {
		return
	}
	frame, err := json.Marshal(busFrame{Origin: b.origin, Payload: payload})
	if err != nil {
		zap.L().Warn("ws.bus_encode", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, channelFor(conversationID), frame).Err(); err != nil {
		zap.L().Warn("ws.bus_publish", zap.Error(err))
	}
}

// subscribe ensures that the process is subscribed to the conversation's
// channel; subsequent calls for the same conversation only increment the
// ref-counter.
func (b *eventBus) subscribe(conversationID int64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	if e, ok := b.subs[conversationID]; ok {
		e.refCnt++
		b.mu.Unlock()
		return
	}

	// First local member → create Redis SUB and fan-out loop.
	ctx, cancel := context.WithCancel(context.Background())
	ps := b.rdb.Subscribe(ctx, channelFor(conversationID))

	b.subs[conversationID] = &subEntry{refCnt: 1, cancel: cancel}
	b.mu.Unlock()

	go func() {
		defer ps.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ps.Channel():
				if !ok { // Redis connection closed.
					return
				}

				var f busFrame
				if err := json.Unmarshal([]byte(m.Payload), &f); err != nil {
					zap.L().Warn("ws.bus_decode", zap.Error(err))
					continue
				}
				if f.Origin == b.origin {
					continue // our own members were served locally
				}
				b.hub.Broadcast(conversationID, f.Payload, nil)
			}
		}
	}()
}

// unsubscribe decrements the ref-counter and tears the Redis SUB down
// when the last local member leaves the conversation.
func (b *eventBus) unsubscribe(conversationID int64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	e, ok := b.subs[conversationID]
	if !ok {
		b.mu.Unlock()
		return
	}
	e.refCnt--
	if e.refCnt > 0 {
		b.mu.Unlock()
		return
	}
	delete(b.subs, conversationID)
	b.mu.Unlock()

	// Outside the lock → stop the fan-out goroutine.
	e.cancel()
}
