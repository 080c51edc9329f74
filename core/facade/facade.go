package facade

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nanaharris/ph-actors-tcc/core/promise"
)

// Abandoner is implemented by request messages carrying a reply slot. The
// worker abandons such messages when it can no longer process them, so the
// awaiting caller never hangs.
type Abandoner interface {
	Abandon(err error)
}

// mockState is the shared container behind a Mock facade. Multiple test
// callers may hit it concurrently without a backing worker, so every
// operation runs under the lock; the lock is held only for the duration of
// a single operation.
type mockState[S any] struct {
	mu    sync.Mutex
	state S
}

// Facade is the caller-facing handle of an actor, with exactly one of two
// forms: Real, holding a producer handle on the mailbox of a running core,
// or Mock, holding lock-protected in-memory state with no worker behind it.
// Both forms answer the same operations, so callers stay agnostic to which
// is in use.
//
// A Facade holds no business state itself and is cheap to duplicate: all
// clones of a Real facade reference the same running core.
type Facade[M any, S any] struct {
	id      string
	mailbox *Mailbox[M]
	done    <-chan struct{}
	mock    *mockState[S]
}

// Mock wraps initial behind a lock, for use without any background worker.
func Mock[M any, S any](initial S) Facade[M, S] {
	return Facade[M, S]{id: newID(), mock: &mockState[S]{state: initial}}
}

// IsMock reports whether the facade is the in-memory stand-in.
func (f Facade[M, S]) IsMock() bool { return f.mock != nil }

// ID returns the actor's identifier, as used in logs and metric labels.
func (f Facade[M, S]) ID() string { return f.id }

// Clone retains a new producer handle on the same actor. Each clone must be
// released with Close; the worker exits once every handle is gone.
func (f Facade[M, S]) Clone() Facade[M, S] {
	if f.mailbox != nil {
		f.mailbox.retain()
	}
	return f
}

// Close releases this handle. Releasing the last handle of a Real facade
// closes the mailbox and lets the worker drain and exit; this is the only
// sanctioned shutdown path. Closing a Mock facade is a no-op.
func (f Facade[M, S]) Close() {
	if f.mailbox != nil {
		f.mailbox.release()
	}
}

func (f Facade[M, S]) String() string {
	if f.IsMock() {
		return fmt.Sprintf("actor[mock id=%s]", f.id)
	}
	return fmt.Sprintf("actor[real id=%s queued=%d]", f.id, f.mailbox.Len())
}

// LogValue renders the facade for structured logs without exposing channel
// or lock internals.
func (f Facade[M, S]) LogValue() slog.Value {
	kind := "real"
	if f.IsMock() {
		kind = "mock"
	}
	return slog.GroupValue(
		slog.String("id", f.id),
		slog.String("kind", kind),
	)
}

// Call dispatches a request/response operation.
//
// On a Real facade it enqueues the message returned by build, carrying a
// fresh reply slot, blocking while the mailbox is full, then awaits the slot.
// ErrTerminated surfaces when the mailbox is closed or the worker exits with
// the slot unresolved. On a Mock facade it applies apply against the shared
// state under the lock and returns directly.
func Call[M any, S any, R any](
	ctx context.Context,
	f Facade[M, S],
	build func(reply *promise.Promise[R]) M,
	apply func(s *S) (R, error),
) (R, error) {
	if f.mock != nil {
		f.mock.mu.Lock()
		defer f.mock.mu.Unlock()
		return apply(&f.mock.state)
	}

	var zero R
	if f.mailbox == nil {
		return zero, ErrTerminated
	}

	reply := promise.New[R]()
	if err := f.mailbox.Send(ctx, build(reply)); err != nil {
		return zero, err
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-f.done:
		// The worker exited; it may still have resolved the slot while
		// draining. An unresolved slot at this point means the message was
		// enqueued past the final drain and will never be observed.
		select {
		case <-reply.Done():
		default:
			return zero, fmt.Errorf("%w: reply slot dropped", ErrTerminated)
		}
	case <-reply.Done():
	}
	return reply.Await(ctx)
}

// Cast dispatches a fire-and-forget operation. It backpressures like Call but
// does not await any result. Casts to a terminated actor fail with
// ErrTerminated; messages are never silently dropped.
func Cast[M any, S any](ctx context.Context, f Facade[M, S], msg M, apply func(s *S)) error {
	if f.mock != nil {
		f.mock.mu.Lock()
		defer f.mock.mu.Unlock()
		apply(&f.mock.state)
		return nil
	}
	if f.mailbox == nil {
		return ErrTerminated
	}
	return f.mailbox.Send(ctx, msg)
}
