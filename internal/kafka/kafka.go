// Package kafka implements a message source backed by a Kafka
// consumer group.
package kafka

import (
	"errors"
	"fmt"
	"time"

	"github.com/Nivl/otel-kafka-check/internal/consumer"
	"github.com/Nivl/otel-kafka-check/internal/envelope"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Offset reset policies
const (
	OffsetEarliest = "earliest"
	OffsetLatest   = "latest"
)

// ErrInvalidConfig is returned when the configuration cannot be used
// to create a consumer
var ErrInvalidConfig = errors.New("invalid kafka config")

// Config contains the configuration needed to consume from Kafka
type Config struct {
	Brokers     []string      `env:"BROKERS,default=localhost:9092" yaml:"brokers"`
	Topics      TopicsConfig  `env:",prefix=TOPIC_" yaml:"topics"`
	GroupID     string        `env:"GROUP_ID,default=telemorph-test-consumer" yaml:"group_id"`
	OffsetReset string        `env:"OFFSET_RESET,default=latest" yaml:"offset_reset"`
	AutoCommit  bool          `env:"AUTO_COMMIT,default=true" yaml:"auto_commit"`
	ClientID    string        `env:"CLIENT_ID,default=otel-kafka-check" yaml:"client_id"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT,default=10s" yaml:"dial_timeout"`
}

// TopicsConfig contains the name of the topic used for each kind of
// telemetry. An empty name disables the topic.
type TopicsConfig struct {
	Traces  string `env:"TRACES,default=otel.traces" yaml:"traces"`
	Metrics string `env:"METRICS,default=otel.metrics" yaml:"metrics"`
	Logs    string `env:"LOGS,default=otel.logs" yaml:"logs"`
}

// List returns the enabled topics
func (t TopicsConfig) List() []consumer.Topic {
	all := []consumer.Topic{
		{Name: t.Traces, Kind: envelope.KindTraces},
		{Name: t.Metrics, Kind: envelope.KindMetrics},
		{Name: t.Logs, Kind: envelope.KindLogs},
	}
	topics := make([]consumer.Topic, 0, len(all))
	for _, topic := range all {
		if topic.Name != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

// Names returns the name of the enabled topics
func (t TopicsConfig) Names() []string {
	topics := t.List()
	names := make([]string, 0, len(topics))
	for _, topic := range topics {
		names = append(names, topic.Name)
	}
	return names
}

// Validate checks that the config can be used to create a consumer
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%w: no brokers", ErrInvalidConfig)
	}
	if len(c.Topics.List()) == 0 {
		return fmt.Errorf("%w: no topics", ErrInvalidConfig)
	}
	if _, err := c.resetOffset(); err != nil {
		return err
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("%w: dial timeout must be positive, got %s", ErrInvalidConfig, c.DialTimeout)
	}
	return nil
}

func (c Config) resetOffset() (kgo.Offset, error) {
	switch c.OffsetReset {
	case OffsetEarliest:
		return kgo.NewOffset().AtStart(), nil
	case OffsetLatest:
		return kgo.NewOffset().AtEnd(), nil
	default:
		return kgo.Offset{}, fmt.Errorf("%w: unsupported offset reset %q, expected %q or %q", ErrInvalidConfig, c.OffsetReset, OffsetEarliest, OffsetLatest)
	}
}

// clientOptions returns the options used to create the consumer
func (c Config) clientOptions() ([]kgo.Opt, error) {
	offset, err := c.resetOffset()
	if err != nil {
		return nil, err
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(c.Brokers...),
		kgo.ClientID(c.ClientID),
		kgo.ConsumeTopics(c.Topics.Names()...),
		kgo.ConsumeResetOffset(offset),
		kgo.DialTimeout(c.DialTimeout),
	}
	if c.GroupID != "" {
		opts = append(opts, kgo.ConsumerGroup(c.GroupID))
		if !c.AutoCommit {
			opts = append(opts, kgo.DisableAutoCommit())
		}
	}
	return opts, nil
}
