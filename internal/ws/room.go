package ws

import (
	"sync"
)

type room struct {
	mu    sync.RWMutex
	conns map[*clientConn]struct{}
}

func newRoom() *room { return &room{conns: map[*clientConn]struct{}{}} }

func (r *room) add(c *clientConn) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
}

func (r *room) remove(c *clientConn) {
	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()
}

func (r *room) contains(c *clientConn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[c]
	return ok
}

// broadcast queues msg on every member except the optionally-excluded
// sender. It reports how many members it reached and which members had a
// full send buffer. The exclusive lock spans the whole enqueue loop so
// broadcasts to one room are serialized: every member sees them in the
// same order. enqueue never blocks, so the lock is held only briefly.
func (r *room) broadcast(msg []byte, exclude *clientConn) (int, []*clientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	var failed []*clientConn
	for c := range r.conns {
		if c == exclude {
			continue
		}
		if c.enqueue(msg) {
			delivered++
		} else {
			failed = append(failed, c)
		}
	}
	// A full send buffer means the client stopped draining its socket.
	for _, c := range failed {
		delete(r.conns, c)
	}
	return delivered, failed
}
