package facade

import "github.com/nanaharris/ph-actors-tcc/core/metrics"

// Metrics defines the instrumentation hooks of the facade package.
// All methods are thread-safe.
type Metrics interface {
	// MessageDuration times the handling of one message.
	MessageDuration(msgType string) metrics.Timer
	// MessageProcessed counts handled messages; success is false when the
	// handler panicked.
	MessageProcessed(msgType string, success bool)
	// MessagePanic counts contained handler panics.
	MessagePanic(msgType string)
	// MailboxDepth reports the current mailbox queue depth.
	MailboxDepth(actorID string, depth int)
}

// nopMetrics is a no-op implementation of Metrics.
type nopMetrics struct{}

func (nopMetrics) MessageDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) MessageProcessed(string, bool)        {}
func (nopMetrics) MessagePanic(string)                  {}
func (nopMetrics) MailboxDepth(string, int)             {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
