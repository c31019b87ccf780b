// Package accountant keeps track of the number of messages received on
// each topic during a session.
package accountant

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrUnknownTopic is returned when incrementing a topic that was
	// not registered.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrDuplicateTopic is returned when a topic is registered more
	// than once, or when a topic name is empty.
	ErrDuplicateTopic = errors.New("duplicate topic")
)

// Accountant counts messages per topic.
// It is not safe for concurrent use; it belongs to a single session.
type Accountant struct {
	topics []string
	counts map[string]int
}

// New returns an Accountant with all the provided topics set to zero
func New(topics []string) (*Accountant, error) {
	counts := make(map[string]int, len(topics))
	for _, t := range topics {
		if t == "" {
			return nil, fmt.Errorf("%w: empty topic name", ErrDuplicateTopic)
		}
		if _, ok := counts[t]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTopic, t)
		}
		counts[t] = 0
	}
	return &Accountant{
		topics: slices.Clone(topics),
		counts: counts,
	}, nil
}

// Increment adds one message to the count of topic
func (a *Accountant) Increment(topic string) error {
	if _, ok := a.counts[topic]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	a.counts[topic]++
	return nil
}

// Snapshot returns a copy of the current counts
func (a *Accountant) Snapshot() map[string]int {
	return maps.Clone(a.counts)
}

// Total returns the number of messages counted across all topics
func (a *Accountant) Total() int {
	total := 0
	for _, c := range a.counts {
		total += c
	}
	return total
}

// Topics returns the registered topics, in registration order
func (a *Accountant) Topics() []string {
	return slices.Clone(a.topics)
}
