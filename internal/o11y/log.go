package o11y

import (
	"fmt"
	"io"
	"log/slog"
)

// LogConfig contains the configuration of the logger
type LogConfig struct {
	Level string `env:"LEVEL,default=info" yaml:"level"`
}

// SetupLogger sets the default logger to a text logger writing to w
func SetupLogger(w io.Writer, cfg LogConfig) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}
