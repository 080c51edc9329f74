// Package counter is a worked example of the facade pattern: an integer
// counter whose state is owned by a single worker goroutine (Real) or a
// locked in-memory cell (Mock).
package counter

import (
	"context"
	"fmt"

	"github.com/nanaharris/ph-actors-tcc/core/facade"
	"github.com/nanaharris/ph-actors-tcc/core/promise"
)

// message is the closed set of operations the counter understands.
type message interface{ counterMsg() }

type incrementMsg struct{ amount int }

type getMsg struct{ reply *promise.Promise[int] }

type resetMsg struct{ reply *promise.Promise[int] }

func (incrementMsg) counterMsg() {}
func (getMsg) counterMsg()       {}
func (resetMsg) counterMsg()     {}

func (m incrementMsg) String() string { return fmt.Sprintf("increment(amount=%d)", m.amount) }
func (getMsg) String() string         { return "get" }
func (resetMsg) String() string       { return "reset" }

func (m getMsg) Abandon(err error)   { m.reply.Abandon(err) }
func (m resetMsg) Abandon(err error) { m.reply.Abandon(err) }

// state is the counter's data, owned by the core (Real) or shared under the
// mock lock.
type state struct{ count int }

// core applies messages one at a time against its private state.
type core struct{ state state }

func (c *core) Receive(msg message) {
	switch m := msg.(type) {
	case incrementMsg:
		c.state.count += m.amount
	case getMsg:
		m.reply.Complete(c.state.count)
	case resetMsg:
		prev := c.state.count
		c.state.count = 0
		m.reply.Complete(prev)
	}
}

// Counter is the caller-facing handle of a counter actor.
type Counter struct {
	facade.Facade[message, state]
}

// Spawn starts a counter actor at initial and returns its facade plus the
// handle observing the worker's termination.
func Spawn(initial int, opts facade.Options) (Counter, *facade.Handle) {
	f, h := facade.Spawn[message, state](&core{state: state{count: initial}}, opts)
	return Counter{f}, h
}

// Mock returns a counter backed by locked in-memory state, for use in tests
// without any background worker.
func Mock(initial int) Counter {
	return Counter{facade.Mock[message, state](state{count: initial})}
}

// Clone retains a new handle on the same counter.
func (c Counter) Clone() Counter { return Counter{c.Facade.Clone()} }

// Increment adds amount to the counter. Fire-and-forget: it backpressures
// while the mailbox is full but does not wait for the mutation to apply.
func (c Counter) Increment(ctx context.Context, amount int) error {
	return facade.Cast(ctx, c.Facade, message(incrementMsg{amount: amount}), func(s *state) {
		s.count += amount
	})
}

// Get returns the current count.
func (c Counter) Get(ctx context.Context) (int, error) {
	return facade.Call(ctx, c.Facade,
		func(reply *promise.Promise[int]) message { return getMsg{reply: reply} },
		func(s *state) (int, error) { return s.count, nil },
	)
}

// Reset zeroes the counter and returns the previous value.
func (c Counter) Reset(ctx context.Context) (int, error) {
	return facade.Call(ctx, c.Facade,
		func(reply *promise.Promise[int]) message { return resetMsg{reply: reply} },
		func(s *state) (int, error) {
			prev := s.count
			s.count = 0
			return prev, nil
		},
	)
}
