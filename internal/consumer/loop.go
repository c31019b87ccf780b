package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Nivl/otel-kafka-check/internal/accountant"
	"github.com/Nivl/otel-kafka-check/internal/envelope"
)

// Observer is called after each processed message
type Observer func(ctx context.Context, e Entry)

// Loop consumes messages from a source until a limit is reached.
// A Loop belongs to a single session and is not safe for concurrent
// use.
type Loop struct {
	accountant *accountant.Accountant
	inspector  *envelope.Inspector
	kinds      map[string]envelope.Kind
	observer   Observer
	now        func() time.Time
}

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithObserver sets a function that will be called after each
// processed message
func WithObserver(o Observer) LoopOption {
	return func(l *Loop) {
		l.observer = o
	}
}

// WithClock replaces the clock used to measure the elapsed time
func WithClock(now func() time.Time) LoopOption {
	return func(l *Loop) {
		l.now = now
	}
}

// NewLoop returns a new Loop. kinds maps each topic to the kind of
// envelope it carries. Topics missing from kinds are counted but their
// messages are reported as unrecognized.
func NewLoop(acct *accountant.Accountant, inspector *envelope.Inspector, kinds map[string]envelope.Kind, opts ...LoopOption) *Loop {
	l := &Loop{
		accountant: acct,
		inspector:  inspector,
		kinds:      kinds,
		now:        time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Run pulls messages from src until maxMessages messages have been
// processed, timeout has elapsed, ctx is cancelled, or the source stops.
//
// A message is only processed if both limits still allow it, meaning
// the run will wait for one more message after reaching maxMessages
// before stopping. A maxMessages or timeout lower or equal to zero
// stops the run immediately.
//
// The returned report is never nil, even when the source fails.
func (l *Loop) Run(ctx context.Context, src Source, maxMessages int, timeout time.Duration) *Report {
	start := l.now()
	r := &Report{
		Entries: []Entry{},
	}

	switch {
	case timeout <= 0:
		r.StopReason = StopTimeoutReached
	case maxMessages <= 0:
		r.StopReason = StopMaxMessagesReached
	default:
		l.consume(ctx, src, maxMessages, timeout, start, r)
	}

	r.Total = l.accountant.Total()
	r.Counts = l.accountant.Snapshot()
	r.Topics = l.accountant.Topics()
	r.Elapsed = l.now().Sub(start)
	r.setVerdict()

	slog.InfoContext(ctx, "consumption stopped",
		"reason", r.StopReason.String(),
		"total", r.Total,
		"decodeFailures", r.DecodeFailures,
		"elapsed", r.Elapsed.String(),
	)
	return r
}

func (l *Loop) consume(ctx context.Context, src Source, maxMessages int, timeout time.Duration, start time.Time, r *Report) {
	pullCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	count := 0
	for {
		if ctx.Err() != nil {
			r.StopReason = interruptReason(ctx)
			return
		}

		pull, err := src.Next(pullCtx)
		if err != nil && pullCtx.Err() != nil && errors.Is(err, pullCtx.Err()) {
			// some sources report a done context as an error
			pull, err = TimedOut(), nil
		}
		if err != nil {
			r.StopReason = StopSourceError
			r.Err = fmt.Errorf("pull message: %w", err)
			slog.ErrorContext(ctx, "could not pull message", "error", err.Error())
			return
		}

		switch pull.Status {
		case PullTimedOut:
			r.StopReason = StopTimeoutReached
			if ctx.Err() != nil {
				r.StopReason = interruptReason(ctx)
			}
			return
		case PullExhausted:
			r.StopReason = StopSourceExhausted
			return
		}

		msg := pull.Message
		if msg == nil {
			r.StopReason = StopSourceError
			r.Err = errors.New("pull message: source returned no message")
			return
		}

		if l.now().Sub(start) >= timeout {
			r.StopReason = StopTimeoutReached
			return
		}
		if count >= maxMessages {
			r.StopReason = StopMaxMessagesReached
			return
		}

		if err := l.accountant.Increment(msg.Topic); err != nil {
			r.StopReason = StopSourceError
			r.Err = fmt.Errorf("count message: %w", err)
			slog.ErrorContext(ctx, "received a message from an unexpected topic", "topic", msg.Topic)
			return
		}
		count++

		e := l.process(msg, count)
		if e.Err != nil {
			r.DecodeFailures++
			slog.WarnContext(ctx, "could not decode message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", e.Err.Error(),
			)
		}
		r.Entries = append(r.Entries, e)

		if l.observer != nil {
			l.observer(ctx, e)
		}
	}
}

// process decodes and analyzes a message
func (l *Loop) process(msg *Message, seq int) Entry {
	e := Entry{
		Sequence: seq,
		Metadata: Metadata{
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
			Timestamp: msg.Timestamp,
			Headers:   msg.Headers,
			Size:      len(msg.Value),
		},
	}

	encoding, _ := msg.Header(HeaderContentEncoding)
	payload, err := l.inspector.Decode(msg.Value, encoding)
	var s envelope.Summary
	if err == nil {
		e.Payload = payload
		s, err = l.inspector.Summarize(payload, l.kinds[msg.Topic])
	}
	if err != nil {
		e.Err = err
		s = envelope.Unrecognized{Reason: err.Error()}
	}
	e.Summary = s
	return e
}

// interruptReason returns the stop reason matching a done context.
// A parent deadline is treated as a timeout, anything else as an
// interruption.
func interruptReason(ctx context.Context) StopReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return StopTimeoutReached
	}
	return StopUserInterrupt
}
