package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vango-dev/signup/internal/signup"
	"github.com/vango-dev/signup/pkg/middleware"
)

// Config configures the signup server.
type Config struct {
	// Address is the address to listen on.
	// Default: ":8080".
	Address string

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// ReadTimeout bounds reading a whole request.
	// Default: 15 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a response. It must exceed the
	// submission delay.
	// Default: 15 seconds.
	WriteTimeout time.Duration

	// IdleTimeout bounds keep-alive connections.
	// Default: 60 seconds.
	IdleTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// Live configures WebSocket live sessions.
	Live LiveConfig

	// Submitter creates accounts. Required.
	Submitter signup.Submitter

	// Metrics collects Prometheus metrics and serves /metrics.
	// Nil disables both.
	Metrics *middleware.Metrics

	// TracerName names the tracer of the tracing middleware.
	// Default: "signup".
	TracerName string

	// Logger receives access and session logs. Nil means slog.Default().
	Logger *slog.Logger
}

// LiveConfig configures live sessions.
type LiveConfig struct {
	// ReadTimeout closes a connection that sends nothing, not even a pong,
	// for this long.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is the keepalive period. It must be shorter than
	// ReadTimeout.
	// Default: 9/10 of ReadTimeout.
	PingInterval time.Duration

	// MaxMessageBytes is the largest frame accepted from a client.
	// Default: 16KB.
	MaxMessageBytes int64

	// CheckOrigin validates the Origin header of the upgrade request.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults and no Submitter.
func DefaultConfig() Config {
	return Config{
		Address:           ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		TracerName:        "signup",
		Live: LiveConfig{
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
			PingInterval:    54 * time.Second,
			MaxMessageBytes: 16 * 1024,
			CheckOrigin:     SameOriginCheck,
		},
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.TracerName == "" {
		c.TracerName = d.TracerName
	}
	if c.Live.ReadTimeout == 0 {
		c.Live.ReadTimeout = d.Live.ReadTimeout
	}
	if c.Live.WriteTimeout == 0 {
		c.Live.WriteTimeout = d.Live.WriteTimeout
	}
	if c.Live.PingInterval == 0 || c.Live.PingInterval >= c.Live.ReadTimeout {
		c.Live.PingInterval = c.Live.ReadTimeout * 9 / 10
	}
	if c.Live.MaxMessageBytes == 0 {
		c.Live.MaxMessageBytes = d.Live.MaxMessageBytes
	}
	if c.Live.CheckOrigin == nil {
		c.Live.CheckOrigin = d.Live.CheckOrigin
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
// Requests without an Origin header (curl, same-origin tools) are allowed.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}

	// Compare the host portion (includes port if present)
	return originURL.Host == host
}
