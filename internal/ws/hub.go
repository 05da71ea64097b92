package ws

import (
	"sync"
)

// Hub is the room registry: it keeps the set of live connections
// subscribed to each conversation. It is the only shared mutable
// structure of the realtime core; every membership change and every
// broadcast snapshot goes through it.
type Hub struct {
	rooms sync.Map // room key -> *room
}

func NewHub() *Hub { return &Hub{} }

// Join adds the connection to the conversation's room. Repeat joins are
// no-ops, and a join racing a disconnect loses: once Purge has started
// for the connection the membership never sticks.
func (h *Hub) Join(conversationID int64, c *clientConn) bool {
	if !c.trackJoin(conversationID) {
		return false
	}
	r, _ := h.rooms.LoadOrStore(RoomKey(conversationID), newRoom())
	r.(*room).add(c)
	// Purge may have snapshotted the connection's room set between
	// trackJoin and add; re-check so the registry entry cannot outlive
	// the connection.
	if c.isClosed() {
		r.(*room).remove(c)
		return false
	}
	return true
}

// Leave removes the connection from the conversation's room; unknown
// memberships are ignored.
func (h *Hub) Leave(conversationID int64, c *clientConn) bool {
	if !c.trackLeave(conversationID) {
		return false
	}
	if v, ok := h.rooms.Load(RoomKey(conversationID)); ok {
		v.(*room).remove(c)
	}
	return true
}

// Broadcast queues the payload on every current member of the
// conversation's room except the optionally-excluded connection, and
// returns the number of members reached. An empty room is a silent no-op.
func (h *Hub) Broadcast(conversationID int64, payload []byte, exclude *clientConn) int {
	v, ok := h.rooms.Load(RoomKey(conversationID))
	if !ok {
		return 0
	}
	delivered, failed := v.(*room).broadcast(payload, exclude)
	// Pruned connections must not keep believing they are members.
	for _, c := range failed {
		c.trackLeave(conversationID)
	}
	return delivered
}

// Purge removes the connection from every room it still belongs to and
// reports those conversations. Called at disconnect; only the first call
// does anything.
func (h *Hub) Purge(c *clientConn) []int64 {
	left, first := c.markClosed()
	if !first {
		return nil
	}
	for _, id := range left {
		if v, ok := h.rooms.Load(RoomKey(id)); ok {
			v.(*room).remove(c)
		}
	}
	return left
}
