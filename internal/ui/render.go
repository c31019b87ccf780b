// Package ui renders the outcome of a check for humans
package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Nivl/otel-kafka-check/internal/consumer"
	"github.com/Nivl/otel-kafka-check/internal/envelope"
	"github.com/charmbracelet/lipgloss"
)

const separatorWidth = 60

// MaxPreviewLength is the number of characters shown when previewing a
// payload
const MaxPreviewLength = 500

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Settings describes the check about to be run
type Settings struct {
	Brokers     []string
	Topics      []string
	MaxMessages int
	Timeout     time.Duration
}

// RenderSettings returns the banner printed before consuming
func RenderSettings(s Settings) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Telemetry ingestion check") + "\n")
	b.WriteString(strings.Repeat("=", separatorWidth) + "\n")
	b.WriteString("Configuration:\n")
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("Kafka Brokers:"), strings.Join(s.Brokers, ", "))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("Topics:"), strings.Join(s.Topics, ", "))
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("Max Messages:"), s.MaxMessages)
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("Timeout:"), s.Timeout)
	fmt.Fprintf(&b, "\nConsuming messages (max: %d, timeout: %s)...\nPress Ctrl+C to stop\n", s.MaxMessages, s.Timeout)
	return b.String()
}

// RenderEntry returns the details of a processed message
func RenderEntry(e consumer.Entry) string {
	var b strings.Builder
	md := e.Metadata

	b.WriteString(strings.Repeat("=", separatorWidth) + "\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("Message #%d", e.Sequence)) + "\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Topic:"), md.Topic)
	fmt.Fprintf(&b, "   %s %d, %s %d\n", labelStyle.Render("Partition:"), md.Partition, labelStyle.Render("Offset:"), md.Offset)
	fmt.Fprintf(&b, "   %s %s\n", labelStyle.Render("Timestamp:"), formatTimestamp(md.Timestamp))
	fmt.Fprintf(&b, "   %s %d bytes\n", labelStyle.Render("Size:"), md.Size)
	if len(md.Headers) > 0 {
		fmt.Fprintf(&b, "   %s\n", labelStyle.Render("Headers:"))
		for _, h := range md.Headers {
			fmt.Fprintf(&b, "     %s: %s\n", h.Key, h.Value)
		}
	}

	if e.Err != nil {
		fmt.Fprintf(&b, "   %s\n", errStyle.Render("Decode failure: "+e.Err.Error()))
		return b.String()
	}
	b.WriteString(renderSummary(e.Summary))
	return b.String()
}

// RenderPayload returns an indented preview of a decompressed payload
func RenderPayload(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}

	label := labelStyle.Render("Value:")
	var preview string
	var buf bytes.Buffer
	switch {
	case json.Indent(&buf, payload, "   ", "  ") == nil:
		preview = buf.String()
	case utf8.Valid(payload):
		preview = string(payload)
	default:
		return fmt.Sprintf("   %s <%d bytes of binary data>\n", label, len(payload))
	}

	if utf8.RuneCountInString(preview) > MaxPreviewLength {
		preview = string([]rune(preview)[:MaxPreviewLength]) + "... (truncated)"
	}
	return fmt.Sprintf("   %s %s\n", label, preview)
}

func renderSummary(s envelope.Summary) string {
	var b strings.Builder
	switch s := s.(type) {
	case envelope.TraceSummary:
		fmt.Fprintf(&b, "   %s\n", titleStyle.Render("Trace analysis:"))
		fmt.Fprintf(&b, "     Found %d spans\n", s.SpanCount)
		for _, span := range s.Spans {
			fmt.Fprintf(&b, "       - %s (trace: %s, span: %s)\n", span.Name, span.TraceID, span.SpanID)
		}
	case envelope.MetricSummary:
		fmt.Fprintf(&b, "   %s\n", titleStyle.Render("Metrics analysis:"))
		fmt.Fprintf(&b, "     Found %d metrics\n", s.MetricCount)
		for _, name := range s.Names {
			fmt.Fprintf(&b, "       - %s\n", name)
		}
	case envelope.LogSummary:
		fmt.Fprintf(&b, "   %s\n", titleStyle.Render("Logs analysis:"))
		fmt.Fprintf(&b, "     Found %d log records\n", s.RecordCount)
		for _, r := range s.Records {
			fmt.Fprintf(&b, "       - [%s] %s...\n", r.Severity, r.Body)
		}
	case envelope.Unrecognized:
		fmt.Fprintf(&b, "   %s %s\n", labelStyle.Render("Not analyzed:"), s.Reason)
	}
	return b.String()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Local().Format(time.DateTime)
}

// RenderReport returns the summary of a run, styled for a terminal
func RenderReport(r *consumer.Report) string {
	var b strings.Builder
	b.WriteString("\n" + stopLine(r) + "\n")
	b.WriteString(strings.Repeat("=", separatorWidth) + "\n")
	b.WriteString(titleStyle.Render("CONSUMPTION SUMMARY") + "\n")
	b.WriteString(strings.Repeat("=", separatorWidth) + "\n")
	writeCounts(&b, r)

	if r.Healthy() {
		b.WriteString("\n" + okStyle.Render("Data ingestion is working correctly!") + "\n")
		b.WriteString("   - Messages are being sent to Kafka topics\n")
		if r.DecodeFailures == 0 {
			b.WriteString("   - Data structure looks valid\n")
		} else {
			b.WriteString("   - " + warnStyle.Render(fmt.Sprintf("%d messages could not be decoded", r.DecodeFailures)) + "\n")
		}
		return b.String()
	}

	b.WriteString("\n" + warnStyle.Render("No messages received") + "\n")
	for _, h := range r.Hints {
		b.WriteString("   - " + h.Description() + "\n")
	}
	return b.String()
}

// PlainReport returns the summary of a run without any styling, to be
// sent to chat services
func PlainReport(r *consumer.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Telemetry ingestion check: %s\n", r.Verdict)
	fmt.Fprintf(&b, "Session: %s\n", r.SessionID)
	fmt.Fprintf(&b, "Stopped: %s after %s\n", r.StopReason, r.Elapsed.Round(time.Millisecond))
	if r.Err != nil {
		fmt.Fprintf(&b, "Error: %s\n", r.Err)
	}
	writeCounts(&b, r)
	if r.DecodeFailures > 0 {
		fmt.Fprintf(&b, "Decode failures: %d\n", r.DecodeFailures)
	}
	for _, h := range r.Hints {
		fmt.Fprintf(&b, "- %s\n", h.Description())
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writeCounts(b *strings.Builder, r *consumer.Report) {
	fmt.Fprintf(b, "Total messages consumed: %d\n", r.Total)
	for _, topic := range r.Topics {
		fmt.Fprintf(b, "  %s: %d messages\n", topic, r.Counts[topic])
	}
}

func stopLine(r *consumer.Report) string {
	switch r.StopReason {
	case consumer.StopTimeoutReached:
		return warnStyle.Render(fmt.Sprintf("Timeout reached (%s)", r.Elapsed.Round(time.Second)))
	case consumer.StopMaxMessagesReached:
		return okStyle.Render(fmt.Sprintf("Reached maximum messages (%d)", r.Total))
	case consumer.StopUserInterrupt:
		return warnStyle.Render("Stopped by user")
	case consumer.StopSourceExhausted:
		return labelStyle.Render("No more messages available")
	case consumer.StopSourceError:
		msg := "Error consuming messages"
		if r.Err != nil {
			msg += ": " + r.Err.Error()
		}
		return errStyle.Render(msg)
	default:
		return r.StopReason.String()
	}
}
