package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatsyncgo/internal/auth"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 12 * time.Second
	pingPeriod = 3 * time.Second // must be < pongWait

	maxFrameSize = 4096
	sendBuffer   = 64
)

// clientConn is the server-side state of one live connection. The
// identity is fixed at handshake time and never re-validated per message.
// rooms and closed are guarded by mu; everything a broadcast needs goes
// through the send channel so no other connection's state is ever touched
// directly.
type clientConn struct {
	rawConn  *websocket.Conn
	identity auth.Identity
	send     chan []byte
	done     chan struct{}

	mu     sync.Mutex
	rooms  map[int64]struct{} // conversationID set
	closed bool
}

func newClientConn(rawConn *websocket.Conn, id auth.Identity) *clientConn {
	return &clientConn{
		rawConn:  rawConn,
		identity: id,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		rooms:    make(map[int64]struct{}),
	}
}

// enqueue hands a payload to the write pump. A full buffer means the
// client stopped draining; the send is dropped, not retried.
func (c *clientConn) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// reply marshals an envelope and queues it on this connection.
func (c *clientConn) reply(event string, body any) {
	env := map[string]any{"event": event}
	if body != nil {
		env["body"] = body
	}
	data, err := json.Marshal(env)
	if err != nil {
		zap.L().Warn("ws.marshal_reply", zap.Error(err))
		return
	}
	c.enqueue(data)
}

// trackJoin records membership intent for a conversation. It refuses once
// disconnect cleanup has started, so a join racing a purge can never
// outlive the connection.
func (c *clientConn) trackJoin(conversationID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if _, ok := c.rooms[conversationID]; ok {
		return false // already a member; joins are idempotent
	}
	c.rooms[conversationID] = struct{}{}
	return true
}

func (c *clientConn) trackLeave(conversationID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[conversationID]; !ok {
		return false
	}
	delete(c.rooms, conversationID)
	return true
}

func (c *clientConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// markClosed flips the connection to closed and returns the conversations
// it was still a member of. Only the first caller gets the list; later
// calls are no-ops.
func (c *clientConn) markClosed() ([]int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}
	c.closed = true
	close(c.done)
	left := make([]int64, 0, len(c.rooms))
	for id := range c.rooms {
		left = append(left, id)
	}
	c.rooms = make(map[int64]struct{})
	return left, true
}

// writePump serializes all writes to the socket: queued payloads plus the
// keep-alive pings. It exits when the connection is marked closed or the
// first write fails.
func (c *clientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.rawConn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.rawConn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.rawConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
