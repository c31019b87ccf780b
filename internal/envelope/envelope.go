// Package envelope decodes OTLP/JSON telemetry payloads and summarizes
// the shape of their resource → scope → record envelope.
package envelope

import (
	"errors"
	"fmt"

	"github.com/valyala/fastjson"
)

// ErrMalformedPayload is returned when a payload cannot be decoded, is
// not a JSON object, or contains a key holding a value of the wrong
// type.
var ErrMalformedPayload = errors.New("malformed payload")

// Kind is the category of telemetry carried by a topic.
type Kind int

const (
	// KindUnknown is used for topics that have no envelope layout.
	KindUnknown Kind = iota
	// KindTraces represents an ExportTraceServiceRequest.
	KindTraces
	// KindMetrics represents an ExportMetricsServiceRequest.
	KindMetrics
	// KindLogs represents an ExportLogsServiceRequest.
	KindLogs
)

func (k Kind) String() string {
	switch k {
	case KindTraces:
		return "traces"
	case KindMetrics:
		return "metrics"
	case KindLogs:
		return "logs"
	default:
		return "unknown"
	}
}

// Summary is the outcome of analyzing a payload. It is one of
// TraceSummary, MetricSummary, LogSummary, or Unrecognized.
type Summary interface {
	Kind() Kind
	isSummary()
}

// Span contains the facts extracted from a single span record.
// IDs are shortened for display.
type Span struct {
	Name    string
	TraceID string
	SpanID  string
}

// TraceSummary summarizes a trace envelope.
type TraceSummary struct {
	SpanCount int
	Spans     []Span
}

// MetricSummary summarizes a metric envelope.
type MetricSummary struct {
	MetricCount int
	Names       []string
}

// LogRecord contains the facts extracted from a single log record.
type LogRecord struct {
	Severity string
	// Body holds at most the first MaxBodyLength characters of the
	// record's body.
	Body string
}

// LogSummary summarizes a log envelope.
type LogSummary struct {
	RecordCount int
	Records     []LogRecord
}

// Unrecognized is returned when a payload doesn't carry the envelope
// expected for its kind.
type Unrecognized struct {
	Reason string
}

func (TraceSummary) Kind() Kind  { return KindTraces }
func (MetricSummary) Kind() Kind { return KindMetrics }
func (LogSummary) Kind() Kind    { return KindLogs }
func (Unrecognized) Kind() Kind  { return KindUnknown }

func (TraceSummary) isSummary()  {}
func (MetricSummary) isSummary() {}
func (LogSummary) isSummary()    {}
func (Unrecognized) isSummary()  {}

func malformed(path, want string, got fastjson.Type) error {
	if path == "" {
		path = "payload"
	}
	return fmt.Errorf("%w: %s: expected %s, got %s", ErrMalformedPayload, path, want, got)
}
