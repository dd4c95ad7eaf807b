// Package engine fans assembled frame packets out to consumers. Consumers
// that fall behind lose frames; nothing in the pipeline queues unboundedly.
package engine

import (
	"context"
	"sync/atomic"

	"visionstream/pkg/packet"
)

type Hub struct {
	broadcast  chan packet.Frame
	register   chan chan packet.Frame
	unregister chan chan packet.Frame
	clients    map[chan packet.Frame]struct{}
	clientBuf  int
	dropped    atomic.Uint64
}

type Option func(*Hub)

func WithBroadcastBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.broadcast = make(chan packet.Frame, size)
		}
	}
}

func WithClientBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.clientBuf = size
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		broadcast:  make(chan packet.Frame, 8),
		register:   make(chan chan packet.Frame),
		unregister: make(chan chan packet.Frame),
		clients:    make(map[chan packet.Frame]struct{}),
		clientBuf:  4,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for ch := range h.clients {
				close(ch)
			}
			return
		case ch := <-h.register:
			h.clients[ch] = struct{}{}
		case ch := <-h.unregister:
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}
		case frame := <-h.broadcast:
			for ch := range h.clients {
				select {
				case ch <- frame:
				default:
					h.dropped.Add(1)
				}
			}
		}
	}
}

func (h *Hub) Subscribe() chan packet.Frame {
	return h.SubscribeWithBuffer(h.clientBuf)
}

func (h *Hub) SubscribeWithBuffer(size int) chan packet.Frame {
	if size <= 0 {
		size = h.clientBuf
	}
	ch := make(chan packet.Frame, size)
	h.register <- ch
	return ch
}

func (h *Hub) Unsubscribe(ch chan packet.Frame) {
	h.unregister <- ch
}

// Publish hands a frame to the broadcast loop. Drops the frame if the
// broadcast buffer is full rather than stalling the driver.
func (h *Hub) Publish(frame packet.Frame) {
	select {
	case h.broadcast <- frame:
	default:
		h.dropped.Add(1)
	}
}

// Dropped counts frames discarded on full consumer or broadcast buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
