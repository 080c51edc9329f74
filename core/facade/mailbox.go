package facade

import (
	"context"
	"fmt"
	"sync"
)

// Mailbox is a bounded multi-producer/single-consumer FIFO conduit.
//
// Producer handles are reference counted: Spawn creates the first handle and
// every [Facade.Clone] retains another. Releasing the last one closes the
// mailbox; messages already queued are still drained in order by the worker,
// while any later Send fails with ErrTerminated.
type Mailbox[M any] struct {
	ch   chan M
	stop chan struct{}

	mu        sync.Mutex
	producers int
	closed    bool
}

func newMailbox[M any](capacity int) *Mailbox[M] {
	return &Mailbox[M]{
		ch:        make(chan M, capacity),
		stop:      make(chan struct{}),
		producers: 1,
	}
}

// Send enqueues a message, blocking while the mailbox is full. It fails when
// ctx is done or once the mailbox is closed.
func (m *Mailbox[M]) Send(ctx context.Context, msg M) error {
	select {
	case <-m.stop:
		return ErrTerminated
	default:
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("send: %w", ctx.Err())
	case <-m.stop:
		return ErrTerminated
	case m.ch <- msg:
		return nil
	}
}

// TrySend attempts a non-blocking enqueue.
func (m *Mailbox[M]) TrySend(msg M) bool {
	select {
	case <-m.stop:
		return false
	case m.ch <- msg:
		return true
	default:
		return false
	}
}

// Len reports the number of queued messages.
func (m *Mailbox[M]) Len() int { return len(m.ch) }

func (m *Mailbox[M]) retain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.producers++
	}
}

func (m *Mailbox[M]) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.producers--
	if m.producers <= 0 {
		m.closed = true
		close(m.stop)
	}
}

// terminate closes the mailbox regardless of outstanding producer handles.
// Used by the worker when its context is cancelled.
func (m *Mailbox[M]) terminate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.stop)
	}
}
