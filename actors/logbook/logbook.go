// Package logbook is a worked example of the facade pattern: an in-memory
// log collector that keeps entries at or above a severity threshold.
package logbook

import (
	"context"
	"slices"

	"github.com/nanaharris/ph-actors-tcc/core/facade"
	"github.com/nanaharris/ph-actors-tcc/core/promise"
)

type message interface{ logbookMsg() }

type recordMsg struct{ entry Entry }

type entriesMsg struct{ reply *promise.Promise[[]Entry] }

type setThresholdMsg struct{ level Level }

func (recordMsg) logbookMsg()       {}
func (entriesMsg) logbookMsg()      {}
func (setThresholdMsg) logbookMsg() {}

func (m entriesMsg) Abandon(err error) { m.reply.Abandon(err) }

type state struct {
	threshold Level
	entries   []Entry
}

func (s *state) record(e Entry) {
	if e.Level < s.threshold {
		return
	}
	s.entries = append(s.entries, e)
}

type core struct{ state state }

func (c *core) Receive(msg message) {
	switch m := msg.(type) {
	case recordMsg:
		c.state.record(m.entry)
	case entriesMsg:
		m.reply.Complete(slices.Clone(c.state.entries))
	case setThresholdMsg:
		c.state.threshold = m.level
	}
}

// Log is the caller-facing handle of a logbook actor.
type Log struct {
	facade.Facade[message, state]
}

// Spawn starts a logbook keeping entries at or above threshold.
func Spawn(threshold Level, opts facade.Options) (Log, *facade.Handle) {
	f, h := facade.Spawn[message, state](&core{state: state{threshold: threshold}}, opts)
	return Log{f}, h
}

// Mock returns a logbook backed by locked in-memory state, for tests.
func Mock(threshold Level) Log {
	return Log{facade.Mock[message, state](state{threshold: threshold})}
}

// Clone retains a new handle on the same logbook.
func (l Log) Clone() Log { return Log{l.Facade.Clone()} }

// Record stores an entry. Entries below the current threshold are discarded.
// Fire-and-forget.
func (l Log) Record(ctx context.Context, level Level, msg string) error {
	e := Entry{Level: level, Message: msg}
	return facade.Cast(ctx, l.Facade, message(recordMsg{entry: e}), func(s *state) {
		s.record(e)
	})
}

// Entries returns a copy of all kept entries, oldest first.
func (l Log) Entries(ctx context.Context) ([]Entry, error) {
	return facade.Call(ctx, l.Facade,
		func(reply *promise.Promise[[]Entry]) message { return entriesMsg{reply: reply} },
		func(s *state) ([]Entry, error) { return slices.Clone(s.entries), nil },
	)
}

// SetThreshold changes the minimum kept severity for subsequent records.
func (l Log) SetThreshold(ctx context.Context, level Level) error {
	return facade.Cast(ctx, l.Facade, message(setThresholdMsg{level: level}), func(s *state) {
		s.threshold = level
	})
}
