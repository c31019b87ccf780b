// Package checker runs ingestion checks: it connects to the bus,
// consumes a bounded number of messages, and reports what was seen.
package checker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Nivl/otel-kafka-check/internal/consumer"
	"github.com/Nivl/otel-kafka-check/internal/o11y"
	"github.com/Nivl/otel-kafka-check/internal/session"
	"github.com/Nivl/otel-kafka-check/internal/ui"
)

// Config contains the limits of a check
type Config struct {
	MaxMessages int           `env:"MAX_MESSAGES,default=10" yaml:"max_messages"`
	Timeout     time.Duration `env:"TIMEOUT,default=30s" yaml:"timeout"`
}

// Checker runs ingestion checks
type Checker struct {
	dial     session.DialFunc
	topics   []consumer.Topic
	reporter o11y.Reporter
	out      io.Writer
	preview  bool
}

// Option configures a Checker
type Option func(*Checker)

// WithReporter sends the report of each check to r
func WithReporter(r o11y.Reporter) Option {
	return func(c *Checker) {
		c.reporter = r
	}
}

// WithOutput prints every message and the final report to w
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.out = w
	}
}

// WithPayloadPreview adds a preview of the value of every message to
// the output
func WithPayloadPreview() Option {
	return func(c *Checker) {
		c.preview = true
	}
}

// New returns a new Checker
func New(dial session.DialFunc, topics []consumer.Topic, opts ...Option) *Checker {
	c := &Checker{
		dial:   dial,
		topics: topics,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run runs a single check.
// An error is only returned if the check could not start. Errors
// happening while consuming are part of the report.
func (c *Checker) Run(ctx context.Context, maxMessages int, timeout time.Duration) (*consumer.Report, error) {
	var loopOpts []consumer.LoopOption
	if c.out != nil {
		loopOpts = append(loopOpts, consumer.WithObserver(func(_ context.Context, e consumer.Entry) {
			fmt.Fprint(c.out, ui.RenderEntry(e))
			if c.preview {
				fmt.Fprint(c.out, ui.RenderPayload(e.Payload))
			}
		}))
	}

	s, err := session.Connect(ctx, c.dial, c.topics, loopOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer s.Close()

	r, err := s.Consume(ctx, maxMessages, timeout)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	if c.out != nil {
		fmt.Fprint(c.out, ui.RenderReport(r))
	}
	if c.reporter != nil {
		// the check may have been interrupted, the report should still
		// go out
		c.reporter.SendMessage(context.WithoutCancel(ctx), ui.PlainReport(r))
	}

	slog.InfoContext(ctx, "check done",
		"session", r.SessionID,
		"verdict", string(r.Verdict),
		"total", r.Total,
	)
	return r, nil
}
