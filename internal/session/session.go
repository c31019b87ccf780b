// Package session manages the lifecycle of a connection to the bus,
// from connecting to disconnecting, and produces the report of the
// consumption that happened in between.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Nivl/otel-kafka-check/internal/accountant"
	"github.com/Nivl/otel-kafka-check/internal/consumer"
	"github.com/Nivl/otel-kafka-check/internal/envelope"
	"github.com/google/uuid"
)

var (
	// ErrConnection is returned when the connection to the bus could
	// not be established
	ErrConnection = errors.New("could not connect")
	// ErrAlreadyConsumed is returned when Consume is called more than
	// once on the same session
	ErrAlreadyConsumed = errors.New("session already consumed")
)

// Conn is an open connection to the bus
type Conn interface {
	consumer.Source
	Close()
}

// DialFunc opens a connection to the bus
type DialFunc func(ctx context.Context) (Conn, error)

// Session is a single consumption session
type Session struct {
	id        string
	conn      Conn
	inspector *envelope.Inspector
	loop      *consumer.Loop

	consumed  bool
	closeOnce sync.Once
}

// Connect sets up the accounting of topics and opens a connection
// using dial. The returned session must be closed.
func Connect(ctx context.Context, dial DialFunc, topics []consumer.Topic, opts ...consumer.LoopOption) (*Session, error) {
	names := make([]string, 0, len(topics))
	kinds := make(map[string]envelope.Kind, len(topics))
	for _, t := range topics {
		names = append(names, t.Name)
		kinds[t.Name] = t.Kind
	}

	acct, err := accountant.New(names)
	if err != nil {
		return nil, fmt.Errorf("setup accountant: %w", err)
	}

	inspector, err := envelope.NewInspector()
	if err != nil {
		return nil, fmt.Errorf("create inspector: %w", err)
	}

	id := uuid.NewString()
	conn, err := dial(ctx)
	if err != nil {
		inspector.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	slog.InfoContext(ctx, "connected", "session", id, "topics", names)

	return &Session{
		id:        id,
		conn:      conn,
		inspector: inspector,
		loop:      consumer.NewLoop(acct, inspector, kinds, opts...),
	}, nil
}

// ID returns the unique ID of the session
func (s *Session) ID() string {
	return s.id
}

// Consume consumes messages until maxMessages messages have been
// received, timeout has elapsed, or ctx is cancelled.
// A report is returned even if the consumption stopped because of a
// source error; the error is then stored in the report.
// Consume can only be called once per session.
func (s *Session) Consume(ctx context.Context, maxMessages int, timeout time.Duration) (*consumer.Report, error) {
	if s.consumed {
		return nil, ErrAlreadyConsumed
	}
	s.consumed = true

	slog.InfoContext(ctx, "consuming messages",
		"session", s.id,
		"maxMessages", maxMessages,
		"timeout", timeout.String(),
	)
	r := s.loop.Run(ctx, s.conn, maxMessages, timeout)
	r.SessionID = s.id
	return r, nil
}

// Close releases the connection. It is safe to call Close multiple
// times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.conn.Close()
		s.inspector.Close()
		slog.Info("disconnected", "session", s.id)
	})
}
