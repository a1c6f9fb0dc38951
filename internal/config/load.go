package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Load reads, expands, normalizes, defaults and validates the config file at
// path. .env and .env.local are loaded first so ${VAR} references resolve.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, ferrors.ConfigError("failed to load environment file").WithCause(err).Build()
	}

	// #nosec G304 -- config path comes from the operator
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.ConfigError("failed to read configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, err
	}
	if len(cfg.Build.Externals) > 0 {
		slog.Info("Ignoring build.externals", logfields.Path(path), slog.Int("count", len(cfg.Build.Externals)))
	}
	slog.Debug("Loaded configuration", logfields.Path(path))
	return cfg, nil
}

// Parse decodes a config document that has already been expanded. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.ConfigError("invalid configuration").WithCause(err).Build()
	}
	if err := finish(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	// Defaults always validate.
	_ = finish(cfg)
	return cfg
}

func finish(cfg *Config) error {
	if err := normalize(cfg); err != nil {
		return ferrors.ConfigError("invalid configuration").WithCause(err).Build()
	}
	if err := applyDefaults(cfg); err != nil {
		return ferrors.ConfigError("failed to apply defaults").WithCause(err).Build()
	}
	if err := cfg.Validate(); err != nil {
		return ferrors.ValidationError("configuration validation failed").WithCause(err).Build()
	}
	return nil
}

func normalize(cfg *Config) error {
	level, err := logLevelNormalizer.NormalizeWithError(string(cfg.Logging.Level))
	if err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	format, err := logFormatNormalizer.NormalizeWithError(string(cfg.Logging.Format))
	if err != nil {
		return fmt.Errorf("logging.format: %w", err)
	}
	cfg.Logging.Level, cfg.Logging.Format = level, format
	if err := cfg.Layout.Normalize(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

// Init writes an example configuration file. An existing file is kept unless
// force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.NewError(ferrors.CategoryAlreadyExists, "configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return ferrors.InternalError("failed to encode example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.FileSystemError("failed to write configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
