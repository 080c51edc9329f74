// Package promise provides a single-use completion cell pairing one request
// with the caller awaiting its result.
//
// A [Promise] is resolved exactly once, by exactly one producer, and observed
// by exactly one awaiting consumer. Either side may walk away: resolving a
// promise whose consumer has abandoned its await is a harmless no-op, and the
// producer never blocks on whether the outcome is observed.
package promise

import (
	"context"
	"errors"
	"sync"
)

// ErrAbandoned resolves a promise whose producer exited before completing it.
var ErrAbandoned = errors.New("promise abandoned")

type outcome[T any] struct {
	value T
	err   error
}

// Promise is a single-producer, single-consumer cell resolved exactly once.
type Promise[T any] struct {
	once sync.Once
	done chan struct{}
	out  outcome[T]
}

// New creates an unresolved promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Complete resolves the promise with a value. Returns false if the promise
// was already resolved.
func (p *Promise[T]) Complete(v T) bool {
	return p.resolve(outcome[T]{value: v})
}

// Reject resolves the promise with an error. Returns false if the promise
// was already resolved.
func (p *Promise[T]) Reject(err error) bool {
	return p.resolve(outcome[T]{err: err})
}

// Abandon rejects the promise on behalf of a producer that can no longer
// complete it. A nil err resolves with ErrAbandoned. Safe to call on an
// already-resolved promise.
func (p *Promise[T]) Abandon(err error) {
	if err == nil {
		err = ErrAbandoned
	}
	p.Reject(err)
}

func (p *Promise[T]) resolve(o outcome[T]) bool {
	won := false
	p.once.Do(func() {
		p.out = o
		close(p.done)
		won = true
	})
	return won
}

// Done signals when the promise has been resolved. After Done is closed,
// Await returns immediately.
func (p *Promise[T]) Done() <-chan struct{} { return p.done }

// Await blocks until the promise is resolved or ctx is done. Abandoning the
// await (ctx cancellation) is always safe for the producer side.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-p.done:
		return p.out.value, p.out.err
	}
}
