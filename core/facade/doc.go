// Package facade implements a reusable pattern for stateful components
// ("actors") that expose one asynchronous operation surface backed by either
// a live worker goroutine or a lock-protected in-memory stand-in for tests.
//
// An actor's mutable state lives in a core, a [Receiver] owned exclusively by
// a single goroutine. Callers never touch the state; they go through a
// [Facade] which, in its Real form, enqueues messages on a bounded [Mailbox]
// and awaits reply slots ([promise.Promise]), and in its Mock form applies
// the equivalent computation synchronously under a lock.
//
// # Defining an actor
//
// Declare a closed message set, a core with an exhaustive switch, and one
// facade method per operation dispatched through [Call] or [Cast]:
//
//	type message interface{ counterMsg() }
//
//	type getMsg struct{ reply *promise.Promise[int] }
//
//	func (c *core) Receive(msg message) {
//	    switch m := msg.(type) {
//	    case incrementMsg:
//	        c.count += m.amount
//	    case getMsg:
//	        m.reply.Complete(c.count)
//	    }
//	}
//
//	func (c Counter) Get(ctx context.Context) (int, error) {
//	    return facade.Call(ctx, c.Facade,
//	        func(reply *promise.Promise[int]) message { return getMsg{reply: reply} },
//	        func(s *state) (int, error) { return s.count, nil },
//	    )
//	}
//
// # Lifecycle
//
// [Spawn] moves the core into its receive loop and returns the Real facade
// plus a [Handle] observing loop termination. Closing every facade handle is
// the sanctioned shutdown: the mailbox closes, queued messages are drained in
// FIFO order, and the loop exits cleanly. After that, every operation fails
// with [ErrTerminated] rather than hanging.
//
// # Ordering
//
// Messages from one producer are processed in the order sent; no two
// operations are ever applied concurrently. Enqueueing beyond mailbox
// capacity blocks the caller (backpressure) and never drops or reorders.
package facade
