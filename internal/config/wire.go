package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vango-dev/signup/internal/errors"
	"github.com/vango-dev/signup/internal/signup"
	"github.com/vango-dev/signup/pkg/middleware"
	"github.com/vango-dev/signup/pkg/server"
	"github.com/vango-dev/signup/pkg/submit"
)

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// Logger builds the slog logger described by the log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Store opens the receipt store selected by storage.driver.
func (c *Config) Store() (submit.Store, error) {
	switch c.Storage.Driver {
	case DriverMemory, "":
		return submit.NewMemoryStore(), nil
	case DriverS3:
		s3cfg := c.Storage.S3
		if s3cfg.Bucket == "" {
			return nil, errors.New("E105").WithSuggestion("Set storage.s3.bucket")
		}
		client := submit.NewS3Client(submit.S3Config{
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			PathStyle:       s3cfg.PathStyle,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
		})
		return submit.NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix), nil
	default:
		return nil, errors.New("E104")
	}
}

// Simulator builds the signup simulator over store.
func (c *Config) Simulator(store submit.Store, logger *slog.Logger) *submit.Simulator {
	sim := submit.NewSimulator(store)
	sim.Delay = Duration(c.Submit.Delay)
	sim.Reserved = append([]string(nil), c.Submit.Reserved...)
	sim.Logger = logger
	return sim
}

// NewMetrics returns the metrics collector, or nil when metrics are off.
func (c *Config) NewMetrics() *middleware.Metrics {
	if !c.MetricsEnabled() {
		return nil
	}
	return middleware.NewMetrics(middleware.WithNamespace(c.Metrics.Namespace))
}

// ServerConfig converts the configuration into a server.Config. Unset
// fields keep the server defaults.
func (c *Config) ServerConfig(submitter signup.Submitter, metrics *middleware.Metrics, logger *slog.Logger) server.Config {
	cfg := server.DefaultConfig()
	cfg.Address = c.Server.Address
	if d := Duration(c.Server.ReadTimeout); d > 0 {
		cfg.ReadTimeout = d
	}
	if d := Duration(c.Server.WriteTimeout); d > 0 {
		cfg.WriteTimeout = d
	}
	if d := Duration(c.Server.ShutdownTimeout); d > 0 {
		cfg.ShutdownTimeout = d
	}
	if d := Duration(c.Live.ReadTimeout); d > 0 {
		cfg.Live.ReadTimeout = d
		cfg.Live.PingInterval = d * 9 / 10
	}
	if c.Live.MaxMessageBytes > 0 {
		cfg.Live.MaxMessageBytes = c.Live.MaxMessageBytes
	}
	// A page POST blocks for the whole submission delay.
	if floor := Duration(c.Submit.Delay) + 5*time.Second; cfg.WriteTimeout < floor {
		cfg.WriteTimeout = floor
	}
	cfg.Submitter = submitter
	cfg.Metrics = metrics
	cfg.Logger = logger
	return cfg
}
