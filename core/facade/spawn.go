package facade

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/nanaharris/ph-actors-tcc/internal/reflector"
)

// OnPanic is invoked when a message handler panics. The loop keeps running.
type OnPanic func(recovered any, stack []byte, msg any)

// Receiver is the core contract: the exclusive owner of an actor's state.
// Receive is called for one message at a time, in mailbox order, always from
// the same goroutine. Request messages must have their reply slot resolved
// before Receive returns.
type Receiver[M any] interface {
	Receive(msg M)
}

// ReceiverFunc adapts a function to the Receiver interface.
type ReceiverFunc[M any] func(msg M)

func (f ReceiverFunc[M]) Receive(msg M) { f(msg) }

// Options configures a spawned actor. The zero value is usable.
type Options struct {
	// MailboxSize bounds in-flight messages; senders block while full.
	MailboxSize int
	// Context stops the worker early when cancelled. Queued requests are
	// abandoned with ErrTerminated so no caller is left hanging.
	Context context.Context
	// ID labels the actor in logs and metrics. Random nanoid by default.
	ID      string
	Logger  *slog.Logger
	OnPanic OnPanic
	Metrics Metrics
}

// Handle is an opaque token observing the termination of an actor's receive
// loop. It is owned by whoever spawned the actor, independent of facade
// clones.
type Handle struct {
	done chan struct{}
}

// Done is closed when the receive loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the loop exits or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return nil
	}
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func newID() string { return gonanoid.MustGenerate(idAlphabet, 8) }

// Spawn moves recv into a background receive loop and returns the Real facade
// plus the handle observing the loop. The core must not be used by any other
// path afterward.
func Spawn[M any, S any](recv Receiver[M], opts Options) (Facade[M, S], *Handle) {
	if opts.MailboxSize <= 0 {
		opts.MailboxSize = 64
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.ID == "" {
		opts.ID = newID()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}

	log := opts.Logger.With(slog.String("actor", opts.ID))
	if opts.OnPanic == nil {
		opts.OnPanic = func(recovered any, stack []byte, msg any) {
			log.Error("actor handler panicked",
				slog.Any("recovered", recovered),
				slog.String("msg_type", reflector.TypeNameOf(msg)),
				slog.String("stack", string(stack)),
			)
		}
	}

	mb := newMailbox[M](opts.MailboxSize)
	h := &Handle{done: make(chan struct{})}

	w := &worker[M]{
		id:      opts.ID,
		ctx:     opts.Context,
		mailbox: mb,
		recv:    recv,
		onPanic: opts.OnPanic,
		metrics: opts.Metrics,
	}
	go w.run(h)

	return Facade[M, S]{id: opts.ID, mailbox: mb, done: h.done}, h
}

type worker[M any] struct {
	id      string
	ctx     context.Context
	mailbox *Mailbox[M]
	recv    Receiver[M]
	onPanic OnPanic
	metrics Metrics
}

func (w *worker[M]) run(h *Handle) {
	defer close(h.done)

	for {
		// cancellation wins over pending messages
		select {
		case <-w.ctx.Done():
			w.mailbox.terminate()
			w.abandonQueued()
			return
		default:
		}

		select {
		case <-w.ctx.Done():
			w.mailbox.terminate()
			w.abandonQueued()
			return
		case <-w.mailbox.stop:
			w.drain()
			return
		case msg := <-w.mailbox.ch:
			w.dispatch(msg)
		}
	}
}

// drain processes messages already queued at close time, preserving FIFO
// order, then exits. Closure of the mailbox is the loop's only clean
// terminal condition.
func (w *worker[M]) drain() {
	for {
		select {
		case msg := <-w.mailbox.ch:
			w.dispatch(msg)
		default:
			return
		}
	}
}

// abandonQueued resolves the reply slot of every still-queued request so no
// caller is left awaiting a worker that will never run again.
func (w *worker[M]) abandonQueued() {
	for {
		select {
		case msg := <-w.mailbox.ch:
			if a, ok := any(msg).(Abandoner); ok {
				a.Abandon(ErrTerminated)
			}
		default:
			return
		}
	}
}

func (w *worker[M]) dispatch(msg M) {
	mt := reflector.TypeNameOf(msg)
	timer := w.metrics.MessageDuration(mt)
	ok := w.safeReceive(msg, mt)
	timer.ObserveDuration()
	w.metrics.MessageProcessed(mt, ok)
	w.metrics.MailboxDepth(w.id, w.mailbox.Len())
}

// safeReceive contains handler panics: the panic is reported, an open reply
// slot is resolved with a failure, and the loop keeps running.
func (w *worker[M]) safeReceive(msg M, mt string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.MessagePanic(mt)
			w.onPanic(r, debug.Stack(), msg)
			if a, isAbandoner := any(msg).(Abandoner); isAbandoner {
				a.Abandon(fmt.Errorf("handler panicked: %v", r))
			}
		}
	}()
	w.recv.Receive(msg)
	return true
}
