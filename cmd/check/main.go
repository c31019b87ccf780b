// Package main contains the entrypoint of the binary that checks that
// telemetry is flowing through Kafka
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Nivl/otel-kafka-check/internal/checker"
	"github.com/Nivl/otel-kafka-check/internal/config"
	"github.com/Nivl/otel-kafka-check/internal/kafka"
	"github.com/Nivl/otel-kafka-check/internal/o11y"
	"github.com/Nivl/otel-kafka-check/internal/ui"
	"github.com/spf13/pflag"
)

const (
	defaultMaxMessages    = 10
	defaultTimeoutSeconds = 30
)

type appConfig struct {
	Kafka kafka.Config   `env:",prefix=KAFKA_" yaml:"kafka"`
	Log   o11y.LogConfig `env:",prefix=LOG_" yaml:"log"`
}

type args struct {
	configPath  string
	maxMessages int
	timeout     time.Duration
	preview     bool
}

// number matches integer positional arguments. Negative ones would be
// read as shorthand flags by pflag.
var number = regexp.MustCompile(`^-?[0-9]+$`)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		slog.ErrorContext(ctx, "something went wrong", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, argv []string, stdout io.Writer) error {
	a, err := parseArgs(argv, stdout)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	var cfg appConfig
	if err = config.Load(ctx, a.configPath, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err = o11y.SetupLogger(os.Stderr, cfg.Log); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	fmt.Fprint(stdout, ui.RenderSettings(ui.Settings{
		Brokers:     cfg.Kafka.Brokers,
		Topics:      cfg.Kafka.Topics.Names(),
		MaxMessages: a.maxMessages,
		Timeout:     a.timeout,
	}))

	opts := []checker.Option{checker.WithOutput(stdout)}
	if a.preview {
		opts = append(opts, checker.WithPayloadPreview())
	}
	c := checker.New(kafka.Dialer(cfg.Kafka), cfg.Kafka.Topics.List(), opts...)
	r, err := c.Run(ctx, a.maxMessages, a.timeout)
	if err != nil {
		return err
	}
	return r.Err
}

// parseArgs parses [max_messages] [timeout_seconds] and the flags
func parseArgs(argv []string, out io.Writer) (args, error) {
	a := args{
		maxMessages: defaultMaxMessages,
		timeout:     defaultTimeoutSeconds * time.Second,
	}

	flags := pflag.NewFlagSet("check", pflag.ContinueOnError)
	flags.SetOutput(out)
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	flags.BoolVar(&a.preview, "preview", true, "print the value of each message")
	flags.Usage = func() {
		fmt.Fprintf(out, "Usage: check [flags] [max_messages=%d] [timeout_seconds=%d]\n", defaultMaxMessages, defaultTimeoutSeconds)
		flags.PrintDefaults()
	}
	if err := flags.Parse(moveNegativeNumbers(argv)); err != nil {
		return a, fmt.Errorf("parse flags: %w", err)
	}

	positional := flags.Args()
	if len(positional) > 2 {
		return a, fmt.Errorf("too many arguments: expected at most 2, got %d", len(positional))
	}
	if len(positional) > 0 {
		n, err := strconv.Atoi(positional[0])
		if err != nil {
			return a, fmt.Errorf("invalid max_messages argument %q: %w", positional[0], err)
		}
		a.maxMessages = n
	}
	if len(positional) > 1 {
		n, err := strconv.Atoi(positional[1])
		if err != nil {
			return a, fmt.Errorf("invalid timeout argument %q: %w", positional[1], err)
		}
		a.timeout = time.Duration(n) * time.Second
	}
	return a, nil
}

// moveNegativeNumbers moves the numbers of argv after a "--", in
// order, when one of them is negative, so they are parsed as positional
// arguments. Values of flags are left untouched.
func moveNegativeNumbers(argv []string) []string {
	flagArgs := make([]string, 0, len(argv)+1)
	var numbers []string
	hasNegative := false
	for i, arg := range argv {
		if arg == "--" {
			numbers = append(numbers, argv[i+1:]...)
			break
		}
		isFlagValue := i > 0 && (argv[i-1] == "--config" || argv[i-1] == "-c")
		if !isFlagValue && number.MatchString(arg) {
			hasNegative = hasNegative || strings.HasPrefix(arg, "-")
			numbers = append(numbers, arg)
			continue
		}
		flagArgs = append(flagArgs, arg)
	}
	if !hasNegative {
		return argv
	}
	return append(append(flagArgs, "--"), numbers...)
}
