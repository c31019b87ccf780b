package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Nivl/otel-kafka-check/internal/consumer"
	"github.com/Nivl/otel-kafka-check/internal/envelope"
	"github.com/stretchr/testify/assert"
)

func TestRenderEntry(t *testing.T) {
	t.Parallel()

	md := consumer.Metadata{
		Topic:     "otel.traces",
		Partition: 1,
		Offset:    42,
		Headers: []consumer.Header{
			{Key: "content_type", Value: []byte("application/json")},
		},
		Size: 128,
	}

	testCases := []struct {
		desc  string
		entry consumer.Entry
		want  []string
	}{
		{
			desc: "traces",
			entry: consumer.Entry{
				Sequence: 3,
				Metadata: md,
				Summary: envelope.TraceSummary{
					SpanCount: 1,
					Spans:     []envelope.Span{{Name: "GET /cart", TraceID: "5b8efff7...", SpanID: "eee19b7e..."}},
				},
			},
			want: []string{
				"Message #3",
				"otel.traces",
				"content_type: application/json",
				"N/A",
				"Found 1 spans",
				"- GET /cart (trace: 5b8efff7..., span: eee19b7e...)",
			},
		},
		{
			desc: "metrics",
			entry: consumer.Entry{
				Sequence: 1,
				Metadata: md,
				Summary:  envelope.MetricSummary{MetricCount: 1, Names: []string{"http.server.duration"}},
			},
			want: []string{"Found 1 metrics", "- http.server.duration"},
		},
		{
			desc: "logs",
			entry: consumer.Entry{
				Sequence: 1,
				Metadata: md,
				Summary: envelope.LogSummary{
					RecordCount: 1,
					Records:     []envelope.LogRecord{{Severity: "INFO", Body: "order 42 created"}},
				},
			},
			want: []string{"Found 1 log records", "- [INFO] order 42 created..."},
		},
		{
			desc: "decode failure",
			entry: consumer.Entry{
				Sequence: 1,
				Metadata: md,
				Summary:  envelope.Unrecognized{Reason: "malformed payload"},
				Err:      envelope.ErrMalformedPayload,
			},
			want: []string{"Decode failure: malformed payload"},
		},
		{
			desc: "unrecognized",
			entry: consumer.Entry{
				Sequence: 1,
				Metadata: md,
				Summary:  envelope.Unrecognized{Reason: "empty value"},
			},
			want: []string{"Not analyzed:", "empty value"},
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			out := RenderEntry(tc.entry)
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()

		r := &consumer.Report{
			Total:      3,
			Counts:     map[string]int{"otel.traces": 2, "otel.metrics": 1, "otel.logs": 0},
			Topics:     []string{"otel.traces", "otel.metrics", "otel.logs"},
			StopReason: consumer.StopMaxMessagesReached,
			Verdict:    consumer.VerdictHealthy,
		}
		out := RenderReport(r)
		assert.Contains(t, out, "Reached maximum messages (3)")
		assert.Contains(t, out, "Total messages consumed: 3")
		assert.Contains(t, out, "otel.traces: 2 messages")
		assert.Contains(t, out, "otel.logs: 0 messages")
		assert.Contains(t, out, "Data structure looks valid")
		assert.NotContains(t, out, "Check Kafka connectivity")
	})

	t.Run("healthy with decode failures", func(t *testing.T) {
		t.Parallel()

		r := &consumer.Report{
			Total:          2,
			Counts:         map[string]int{"otel.logs": 2},
			Topics:         []string{"otel.logs"},
			StopReason:     consumer.StopSourceExhausted,
			DecodeFailures: 1,
			Verdict:        consumer.VerdictHealthy,
		}
		out := RenderReport(r)
		assert.Contains(t, out, "1 messages could not be decoded")
		assert.NotContains(t, out, "Data structure looks valid")
	})

	t.Run("no data", func(t *testing.T) {
		t.Parallel()

		r := &consumer.Report{
			Counts:     map[string]int{"otel.traces": 0},
			Topics:     []string{"otel.traces"},
			StopReason: consumer.StopTimeoutReached,
			Elapsed:    30 * time.Second,
			Verdict:    consumer.VerdictNoData,
			Hints: []consumer.Hint{
				consumer.HintServiceRunning,
				consumer.HintProducerActivity,
				consumer.HintBrokerConnectivity,
			},
		}
		out := RenderReport(r)
		assert.Contains(t, out, "Timeout reached (30s)")
		assert.Contains(t, out, "No messages received")
		assert.Contains(t, out, "Check if the ingestion service is running")
		assert.Contains(t, out, "Check if test data is being sent")
		assert.Contains(t, out, "Check Kafka connectivity")
	})

	t.Run("source error", func(t *testing.T) {
		t.Parallel()

		r := &consumer.Report{
			StopReason: consumer.StopSourceError,
			Err:        errors.New("pull message: broker went away"),
			Verdict:    consumer.VerdictNoData,
		}
		assert.Contains(t, RenderReport(r), "Error consuming messages: pull message: broker went away")
	})
}

func TestPlainReport(t *testing.T) {
	t.Parallel()

	r := &consumer.Report{
		SessionID:  "f47ac10b-58cc-4372-a567-0e02b2c3d479",
		Counts:     map[string]int{"otel.traces": 0, "otel.logs": 0},
		Topics:     []string{"otel.traces", "otel.logs"},
		StopReason: consumer.StopTimeoutReached,
		Elapsed:    1500 * time.Millisecond,
		Verdict:    consumer.VerdictNoData,
		Hints:      []consumer.Hint{consumer.HintBrokerConnectivity},
	}

	want := "Telemetry ingestion check: no data observed\n" +
		"Session: f47ac10b-58cc-4372-a567-0e02b2c3d479\n" +
		"Stopped: timeout reached after 1.5s\n" +
		"Total messages consumed: 0\n" +
		"  otel.traces: 0 messages\n" +
		"  otel.logs: 0 messages\n" +
		"- Check Kafka connectivity"
	assert.Equal(t, want, PlainReport(r))
}

func TestRenderSettings(t *testing.T) {
	t.Parallel()

	out := RenderSettings(Settings{
		Brokers:     []string{"localhost:9092"},
		Topics:      []string{"otel.traces", "otel.metrics"},
		MaxMessages: 10,
		Timeout:     30 * time.Second,
	})
	assert.Contains(t, out, "localhost:9092")
	assert.Contains(t, out, "otel.traces, otel.metrics")
	assert.Contains(t, out, "Consuming messages (max: 10, timeout: 30s)")
}

func TestRenderPayload(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, RenderPayload(nil))
	})

	t.Run("json is indented", func(t *testing.T) {
		t.Parallel()

		out := RenderPayload([]byte(`{"resourceLogs":[]}`))
		assert.Contains(t, out, "{\n     \"resourceLogs\": []\n   }")
		assert.NotContains(t, out, "(truncated)")
	})

	t.Run("long json is truncated", func(t *testing.T) {
		t.Parallel()

		out := RenderPayload([]byte(`{"body":"` + strings.Repeat("x", 2*MaxPreviewLength) + `"}`))
		assert.Contains(t, out, "... (truncated)")
		assert.NotContains(t, out, strings.Repeat("x", MaxPreviewLength))
	})

	t.Run("invalid json is shown as text", func(t *testing.T) {
		t.Parallel()

		out := RenderPayload([]byte(`{"resourceSpans":`))
		assert.Contains(t, out, `{"resourceSpans":`)
	})

	t.Run("binary", func(t *testing.T) {
		t.Parallel()

		out := RenderPayload([]byte{0xff, 0xfe, 0x00})
		assert.Contains(t, out, "<3 bytes of binary data>")
	})
}
