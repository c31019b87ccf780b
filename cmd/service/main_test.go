package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Nivl/otel-kafka-check/internal/checker"
	"github.com/Nivl/otel-kafka-check/internal/consumer"
	"github.com/Nivl/otel-kafka-check/internal/envelope"
	"github.com/Nivl/otel-kafka-check/internal/kafka"
	"github.com/Nivl/otel-kafka-check/internal/mocks"
	"github.com/Nivl/otel-kafka-check/internal/session"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestProcessConnectionFailure(t *testing.T) {
	t.Parallel()

	mockctrl := gomock.NewController(t)
	t.Cleanup(mockctrl.Finish)

	var sent string
	reporter := mocks.NewMockReporter(mockctrl)
	reporter.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Do(func(_ context.Context, msg string) {
		sent = msg
	})

	c := checker.New(func(context.Context) (session.Conn, error) {
		return nil, errors.New("connection refused")
	}, []consumer.Topic{{Name: "otel.traces", Kind: envelope.KindTraces}}, checker.WithReporter(reporter))

	cfg := appConfig{
		Kafka: kafka.Config{DialTimeout: time.Second},
		Check: checker.Config{MaxMessages: 10, Timeout: time.Second},
	}
	process(testContext(t), c, reporter, cfg)

	assert.True(t, strings.HasPrefix(sent, "Telemetry ingestion check could not run:"))
	assert.Contains(t, sent, "connection refused")
}
