package consumer

import (
	"time"

	"github.com/Nivl/otel-kafka-check/internal/envelope"
)

// StopReason is the condition that terminated a run
type StopReason int

const (
	// StopMaxMessagesReached means the run consumed the maximum number
	// of messages allowed
	StopMaxMessagesReached StopReason = iota + 1
	// StopTimeoutReached means the run lasted longer than its timeout
	StopTimeoutReached
	// StopUserInterrupt means the run was cancelled by the user
	StopUserInterrupt
	// StopSourceExhausted means the source has no more messages
	StopSourceExhausted
	// StopSourceError means the source failed
	StopSourceError
)

func (r StopReason) String() string {
	switch r {
	case StopMaxMessagesReached:
		return "max messages reached"
	case StopTimeoutReached:
		return "timeout reached"
	case StopUserInterrupt:
		return "interrupted"
	case StopSourceExhausted:
		return "source exhausted"
	case StopSourceError:
		return "source error"
	default:
		return "unknown"
	}
}

// Verdict is the qualitative outcome of a run
type Verdict string

const (
	// VerdictHealthy is used when at least one message was received
	VerdictHealthy Verdict = "ingestion healthy"
	// VerdictNoData is used when no messages were received
	VerdictNoData Verdict = "no data observed"
)

// Hint is a diagnostic check suggested when no data was observed
type Hint string

const (
	// HintServiceRunning suggests checking the ingestion service
	HintServiceRunning Hint = "service-running"
	// HintProducerActivity suggests checking that telemetry is being
	// sent to the ingestion service
	HintProducerActivity Hint = "producer-activity"
	// HintBrokerConnectivity suggests checking the connection to the
	// brokers
	HintBrokerConnectivity Hint = "broker-connectivity"
)

// Description returns a human readable version of the hint
func (h Hint) Description() string {
	switch h {
	case HintServiceRunning:
		return "Check if the ingestion service is running"
	case HintProducerActivity:
		return "Check if test data is being sent"
	case HintBrokerConnectivity:
		return "Check Kafka connectivity"
	default:
		return string(h)
	}
}

// Metadata contains everything about a message except its value
type Metadata struct {
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
	Headers   []Header
	// Size is the size of the raw value, in bytes
	Size int
}

// Entry is the record of a processed message
type Entry struct {
	// Sequence is the 1-based position of the message in the run
	Sequence int
	Metadata Metadata
	Summary  envelope.Summary
	// Payload is the decompressed value of the message. It is nil when
	// the value could not be decompressed.
	Payload []byte
	// Err is set when the value of the message could not be decoded.
	// Summary is then an envelope.Unrecognized.
	Err error
}

// Report is the outcome of a run
type Report struct {
	// SessionID identifies the session that produced the report.
	// Set by the session.
	SessionID string
	// Total is the number of messages processed
	Total int
	// Counts contains the number of messages processed per topic
	Counts map[string]int
	// Topics contains the topics of Counts, in configuration order
	Topics     []string
	StopReason StopReason
	// Err is set when StopReason is StopSourceError
	Err            error
	DecodeFailures int
	Elapsed        time.Duration
	// Entries contains all the processed messages, in order
	Entries []Entry
	Verdict Verdict
	// Hints is only set when no data was observed
	Hints []Hint
}

// Healthy returns true if data has been observed
func (r *Report) Healthy() bool {
	return r.Verdict == VerdictHealthy
}

func (r *Report) setVerdict() {
	if r.Total > 0 {
		r.Verdict = VerdictHealthy
		r.Hints = nil
		return
	}
	r.Verdict = VerdictNoData
	r.Hints = []Hint{
		HintServiceRunning,
		HintProducerActivity,
		HintBrokerConnectivity,
	}
}
