package repositories

import (
	"context"
	"sync"
)

// signalHub fans a change signal out to watchers. It mirrors the contract of
// the Mongo change-stream adapter: a coalescing tick per change, consumers
// re-query after each tick.
type signalHub struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func newSignalHub() *signalHub {
	return &signalHub{subs: make(map[int]chan struct{})}
}

func (h *signalHub) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *signalHub) subscribe(ctx context.Context) (<-chan struct{}, func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	ch := make(chan struct{}, 1)
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return ch, cancel
}
