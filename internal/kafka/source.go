package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Nivl/otel-kafka-check/internal/consumer"
	"github.com/Nivl/otel-kafka-check/internal/session"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Source is a consumer.Source that reads records from Kafka one at a
// time
type Source struct {
	client *kgo.Client
	// err is a fetch error received along with a record. It is returned
	// by the next call to Next.
	err error
}

// Dial creates a consumer and makes sure the cluster can be reached.
// The returned Source must be closed.
func Dial(ctx context.Context, cfg Config) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := cfg.clientOptions()
	if err != nil {
		return nil, err
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err = probe(ctx, client, cfg); err != nil {
		client.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "connected to Kafka",
		"brokers", cfg.Brokers,
		"group", cfg.GroupID,
		"offsetReset", cfg.OffsetReset,
	)
	return &Source{client: client}, nil
}

// probe asks the cluster for the metadata of the topics. Missing topics
// are only reported since producers may create them later on.
func probe(ctx context.Context, client *kgo.Client, cfg Config) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	topics := cfg.Topics.Names()
	details, err := kadm.NewClient(client).ListTopics(ctx, topics...)
	if err != nil {
		return fmt.Errorf("reach brokers %v: %w", cfg.Brokers, err)
	}

	for _, t := range topics {
		d, ok := details[t]
		if !ok || d.Err != nil {
			slog.WarnContext(ctx, "topic not found on the cluster", "topic", t)
			continue
		}
		slog.DebugContext(ctx, "topic found", "topic", t, "partitions", len(d.Partitions))
	}
	return nil
}

// Next returns the next record. It blocks until a record is available
// or ctx is done.
func (s *Source) Next(ctx context.Context) (consumer.Pull, error) {
	if s.err != nil {
		return consumer.Pull{}, s.err
	}

	for {
		pull, done, err := s.handle(ctx, s.client.PollRecords(ctx, 1))
		if done {
			return pull, err
		}
	}
}

// handle turns the result of a poll into a pull. done is false when
// nothing happened and the poll should be retried.
// A fetch error received along with a record is kept for the next
// call to Next, so the record isn't lost.
func (s *Source) handle(ctx context.Context, fetches kgo.Fetches) (pull consumer.Pull, done bool, err error) {
	if fetches.IsClientClosed() {
		return consumer.Exhausted(), true, nil
	}

	for _, fe := range fetches.Errors() {
		if errors.Is(fe.Err, context.Canceled) || errors.Is(fe.Err, context.DeadlineExceeded) {
			continue
		}
		err = fmt.Errorf("fetch %s[%d]: %w", fe.Topic, fe.Partition, fe.Err)
		break
	}

	if records := fetches.Records(); len(records) > 0 {
		s.err = err
		return consumer.Received(toMessage(records[0])), true, nil
	}
	if err != nil {
		return consumer.Pull{}, true, err
	}
	if ctx.Err() != nil {
		return consumer.TimedOut(), true, nil
	}
	return consumer.Pull{}, false, nil
}

// Close leaves the consumer group and closes the connections
func (s *Source) Close() {
	s.client.Close()
}

func toMessage(r *kgo.Record) *consumer.Message {
	headers := make([]consumer.Header, 0, len(r.Headers))
	for _, h := range r.Headers {
		headers = append(headers, consumer.Header{
			Key:   h.Key,
			Value: h.Value,
		})
	}
	return &consumer.Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Timestamp: r.Timestamp,
		Headers:   headers,
		Value:     r.Value,
	}
}

// Dialer returns a function that connects to Kafka using cfg
func Dialer(cfg Config) session.DialFunc {
	return func(ctx context.Context) (session.Conn, error) {
		src, err := Dial(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}
