// Package config loads the configuration of the binaries from the
// environment and from an optional YAML file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Nivl/otel-kafka-check/internal/errutil"
	"github.com/Nivl/otel-kafka-check/internal/pathutil"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the name of the config file looked up in the
// config directory when no file is provided
const DefaultFileName = "config.yaml"

// EnvFile is the env variable that can be used to set the path of the
// config file
const EnvFile = "CONFIG_FILE"

// Load fills dst with the values from the environment, then overrides
// them with the values of the YAML file at path.
// If path is empty, the file set in CONFIG_FILE is used, then
// config.yaml in the config directory if it exists.
func Load(ctx context.Context, path string, dst any) error {
	return load(ctx, envconfig.OsLookuper(), path, dst)
}

func load(ctx context.Context, lookuper envconfig.Lookuper, path string, dst any) error {
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   dst,
		Lookuper: lookuper,
	})
	if err != nil {
		return fmt.Errorf("parse the env: %w", err)
	}

	path, optional := resolvePath(lookuper, path)
	if err = overlay(path, dst); err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	return nil
}

// resolvePath returns the path of the config file to use, and whether
// the file is allowed to be missing
func resolvePath(lookuper envconfig.Lookuper, path string) (string, bool) {
	if path != "" {
		return path, false
	}
	if p, ok := lookuper.Lookup(EnvFile); ok && p != "" {
		return p, false
	}
	return pathutil.ConfigFile(DefaultFileName), true
}

func overlay(path string, dst any) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer errutil.RunAndSetError(f.Close, &err, "close file")

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}
