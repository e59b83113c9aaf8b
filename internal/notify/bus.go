package notify

import (
	"context"
	"sync"
)

// Bus is an in-process broadcast registry for running both views inside one
// process (and for tests). Each view attaches through Connect; a broadcast
// reaches every other connection but never loops back to the sender.
type Bus struct {
	mu       sync.RWMutex
	handlers map[int]func()
	nextID   int
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]func())}
}

// Connect registers a new endpoint on the bus.
func (b *Bus) Connect() *BusConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	return &BusConn{bus: b, id: id}
}

// BusConn is one view's handle on the bus.
type BusConn struct {
	bus *Bus
	id  int
}

func (c *BusConn) Broadcast(ctx context.Context) {
	c.bus.mu.RLock()
	handlers := make([]func(), 0, len(c.bus.handlers))
	for id, h := range c.bus.handlers {
		if id != c.id && h != nil {
			handlers = append(handlers, h)
		}
	}
	c.bus.mu.RUnlock()

	// Handlers run synchronously; caller decides concurrency model.
	for _, h := range handlers {
		h()
	}
}

func (c *BusConn) Subscribe(ctx context.Context, handler func()) {
	c.bus.mu.Lock()
	c.bus.handlers[c.id] = handler
	c.bus.mu.Unlock()
}

func (c *BusConn) Close() error {
	c.bus.mu.Lock()
	delete(c.bus.handlers, c.id)
	c.bus.mu.Unlock()
	return nil
}
