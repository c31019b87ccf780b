// Package consumer contains the bounded consumption loop that pulls
// telemetry messages from a source, counts them, and summarizes their
// envelope.
package consumer

import (
	"context"
	"strings"
	"time"

	"github.com/Nivl/otel-kafka-check/internal/envelope"
)

// HeaderContentEncoding is the record header used by producers to
// announce a compressed value.
const HeaderContentEncoding = "content-encoding"

// Topic is a topic to consume from, along with the kind of envelope
// its messages carry
type Topic struct {
	Name string
	Kind envelope.Kind
}

// Header is a record header
type Header struct {
	Key   string
	Value []byte
}

// Message is a record received from the bus
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	// Timestamp is the zero time when the record has no timestamp.
	Timestamp time.Time
	Headers   []Header
	Value     []byte
}

// Header returns the value of the first header matching key, ignoring
// case. Producers are not consistent between "content-encoding" and
// "content_encoding", so both separators are accepted.
func (m *Message) Header(key string) (string, bool) {
	key = normalizeHeaderKey(key)
	for _, h := range m.Headers {
		if normalizeHeaderKey(h.Key) == key {
			return string(h.Value), true
		}
	}
	return "", false
}

func normalizeHeaderKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(k), "_", "-")
}

// PullStatus is the outcome of a pull
type PullStatus int

const (
	// PullReceived means a message was received
	PullReceived PullStatus = iota
	// PullTimedOut means the context of the pull was done before a
	// message arrived, either because its deadline passed or because
	// it was cancelled.
	PullTimedOut
	// PullExhausted means the source will never produce another
	// message
	PullExhausted
)

// Pull is the result of Source.Next
type Pull struct {
	Status PullStatus
	// Message is only set when Status is PullReceived
	Message *Message
}

// Received returns a Pull containing msg
func Received(msg *Message) Pull {
	return Pull{Status: PullReceived, Message: msg}
}

// TimedOut returns a Pull for a context that ended before a message
// arrived
func TimedOut() Pull {
	return Pull{Status: PullTimedOut}
}

// Exhausted returns a Pull for a source that has no more messages
func Exhausted() Pull {
	return Pull{Status: PullExhausted}
}

// Source is a source of telemetry messages.
//
//go:generate mockgen -destination=../mocks/source.go -package=mocks github.com/Nivl/otel-kafka-check/internal/consumer Source
type Source interface {
	// Next blocks until a message is available, the source is
	// exhausted, or ctx is done. Implementations must return as soon
	// as ctx is done, with a TimedOut pull.
	// An error means the source cannot be used anymore.
	Next(ctx context.Context) (Pull, error)
}
