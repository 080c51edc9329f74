// Package kvstore fronts a kv.Store with an actor, serializing all access
// through one worker (Real) or a lock (Mock). Lookup misses surface
// kv.ErrNotFound as a domain error, distinct from facade.ErrTerminated.
package kvstore

import (
	"context"
	"errors"

	"github.com/nanaharris/ph-actors-tcc/core/facade"
	"github.com/nanaharris/ph-actors-tcc/core/promise"
	"github.com/nanaharris/ph-actors-tcc/ports/kv"
)

type message interface{ kvMsg() }

type putMsg struct {
	key   string
	value []byte
	reply *promise.Promise[struct{}]
}

type getMsg struct {
	key   string
	reply *promise.Promise[[]byte]
}

type deleteMsg struct{ key string }

func (putMsg) kvMsg()    {}
func (getMsg) kvMsg()    {}
func (deleteMsg) kvMsg() {}

func (m putMsg) Abandon(err error) { m.reply.Abandon(err) }
func (m getMsg) Abandon(err error) { m.reply.Abandon(err) }

// state wraps the backing store so the mock can apply operations directly.
type state struct{ store kv.Store }

type core struct {
	ctx   context.Context
	state state
}

func (c *core) Receive(msg message) {
	switch m := msg.(type) {
	case putMsg:
		if err := c.state.store.Put(c.ctx, m.key, m.value); err != nil {
			m.reply.Reject(err)
			return
		}
		m.reply.Complete(struct{}{})
	case getMsg:
		value, err := c.state.store.Get(c.ctx, m.key)
		if err != nil {
			m.reply.Reject(err)
			return
		}
		m.reply.Complete(value)
	case deleteMsg:
		// fire-and-forget; a delete on a missing key is not an error
		_ = c.state.store.Delete(c.ctx, m.key)
	}
}

// KV is the caller-facing handle of a kvstore actor.
type KV struct {
	facade.Facade[message, state]
}

// Spawn starts a kvstore actor over store. A nil store fails construction;
// no worker is started in that case.
func Spawn(store kv.Store, opts facade.Options) (KV, *facade.Handle, error) {
	if store == nil {
		return KV{}, nil, errors.New("kvstore: store is required")
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	f, h := facade.Spawn[message, state](&core{ctx: ctx, state: state{store: store}}, opts)
	return KV{f}, h, nil
}

// Mock returns a kvstore backed by a fresh in-memory store behind a lock.
func Mock() KV {
	return KV{facade.Mock[message, state](state{store: kv.NewMemStore()})}
}

// Clone retains a new handle on the same kvstore.
func (k KV) Clone() KV { return KV{k.Facade.Clone()} }

// Put stores value under key.
func (k KV) Put(ctx context.Context, key string, value []byte) error {
	_, err := facade.Call(ctx, k.Facade,
		func(reply *promise.Promise[struct{}]) message {
			return putMsg{key: key, value: value, reply: reply}
		},
		func(s *state) (struct{}, error) {
			return struct{}{}, s.store.Put(ctx, key, value)
		},
	)
	return err
}

// Get returns the value stored under key, or kv.ErrNotFound.
func (k KV) Get(ctx context.Context, key string) ([]byte, error) {
	return facade.Call(ctx, k.Facade,
		func(reply *promise.Promise[[]byte]) message { return getMsg{key: key, reply: reply} },
		func(s *state) ([]byte, error) { return s.store.Get(ctx, key) },
	)
}

// Delete removes key. Fire-and-forget; deleting a missing key is a no-op.
func (k KV) Delete(ctx context.Context, key string) error {
	return facade.Cast(ctx, k.Facade, message(deleteMsg{key: key}), func(s *state) {
		_ = s.store.Delete(ctx, key)
	})
}
