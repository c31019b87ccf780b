// Package o11y provides observability utilities.
package o11y

import "context"

// Reporter is an interface for sending messages to an observability
// backend.
//
//go:generate mockgen -destination=../mocks/reporter.go -package=mocks github.com/Nivl/otel-kafka-check/internal/o11y Reporter
type Reporter interface {
	SendMessage(ctx context.Context, msg string)
}
