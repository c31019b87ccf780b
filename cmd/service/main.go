// Package main contains the entrypoint of the binary that periodically
// checks that telemetry is flowing through Kafka and reports to Slack
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Nivl/otel-kafka-check/internal/checker"
	"github.com/Nivl/otel-kafka-check/internal/config"
	"github.com/Nivl/otel-kafka-check/internal/kafka"
	"github.com/Nivl/otel-kafka-check/internal/o11y"
	"github.com/Nivl/otel-kafka-check/internal/slack"
	"github.com/robfig/cron"
)

type appConfig struct {
	Kafka     kafka.Config   `env:",prefix=KAFKA_" yaml:"kafka"`
	Slack     slack.Config   `env:",prefix=SLACK_" yaml:"slack"`
	Check     checker.Config `env:",prefix=CHECK_" yaml:"check"`
	Log       o11y.LogConfig `env:",prefix=LOG_" yaml:"log"`
	CronSpecs string         `env:"CRON_SPECS,default=@hourly" yaml:"cron_specs"`
}

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		slog.ErrorContext(ctx, "something went wrong", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	var cfg appConfig
	if err = config.Load(ctx, "", &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err = o11y.SetupLogger(os.Stderr, cfg.Log); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	if err = cfg.Kafka.Validate(); err != nil {
		return fmt.Errorf("validate kafka config: %w", err)
	}

	var reporter o11y.Reporter
	if slackClient := slack.NewClient(cfg.Slack); slackClient != nil {
		reporter = slackClient
	} else {
		slog.WarnContext(ctx, "no slack webhooks configured, reports will only be logged")
	}

	c := checker.New(kafka.Dialer(cfg.Kafka), cfg.Kafka.Topics.List(), checker.WithReporter(reporter))
	slog.InfoContext(ctx, "Ingestion check: starting", "cronSpecs", cfg.CronSpecs)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var running sync.Mutex
	crn := cron.New()
	err = crn.AddFunc(cfg.CronSpecs, func() {
		if !running.TryLock() {
			slog.WarnContext(ctx, "previous check still running, skipping")
			return
		}
		defer running.Unlock()
		process(ctx, c, reporter, cfg)
	})
	if err != nil {
		return fmt.Errorf("setup cron: %w", err)
	}
	crn.Start()

	<-ctx.Done()
	slog.InfoContext(ctx, "Ingestion check: stopping")

	crn.Stop()
	// waits for the running check to be done
	running.Lock()
	return nil
}

func process(ctx context.Context, c *checker.Checker, reporter o11y.Reporter, cfg appConfig) {
	// leaves room to connect on top of the consumption timeout
	processCtx, cancel := context.WithTimeout(ctx, cfg.Check.Timeout+cfg.Kafka.DialTimeout)
	defer cancel()

	r, err := c.Run(processCtx, cfg.Check.MaxMessages, cfg.Check.Timeout)
	if err != nil {
		slog.ErrorContext(ctx, "An error occurred during a check", "error", err.Error())
		if reporter != nil {
			reporter.SendMessage(ctx, "Telemetry ingestion check could not run: "+err.Error())
		}
		return
	}
	if r.Err != nil {
		slog.ErrorContext(ctx, "The check stopped early", "error", r.Err.Error())
	}
}
