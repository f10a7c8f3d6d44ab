package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crosstalk-rpc/crosstalk/pkg/channel"
)

// Config holds configuration for the WebSocket RPC client.
type Config struct {
	// URL is the WebSocket endpoint, ws:// or wss://.
	URL string

	// Routes is the method table answering server-initiated traffic.
	Routes channel.Routes

	// Interceptors wrap dispatch on every connection's channel.
	Interceptors []channel.Interceptor

	// Header is sent with the upgrade request.
	Header http.Header

	// DisableReconnect turns off automatic reconnection. Default: off.
	DisableReconnect bool

	// ReconnectInterval is the delay before a reconnect attempt.
	// Default: 5 seconds.
	ReconnectInterval time.Duration

	// MaxReconnectInterval caps the backoff between attempts. Default:
	// equal to ReconnectInterval, so attempts are evenly spaced.
	MaxReconnectInterval time.Duration

	// PingInterval is how often the built-in ping probes connection
	// health. Zero selects the 10 second default; negative disables
	// probing.
	PingInterval time.Duration

	// CallTimeout is the default timeout for calls. Default: 5 seconds.
	CallTimeout time.Duration

	// HandshakeTimeout bounds the WebSocket handshake. Default: 10
	// seconds.
	HandshakeTimeout time.Duration

	// InsecureSkipVerify disables certificate verification for wss://
	// endpoints, for self-signed development servers.
	InsecureSkipVerify bool

	// DisableCompression turns off permessage-deflate negotiation.
	// Default: off, compression enabled.
	DisableCompression bool

	// WriteTimeout is the per-frame write deadline. Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize caps inbound frames. Default: 1MB.
	MaxMessageSize int64

	// Logger receives diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReconnectInterval: 5 * time.Second,
		PingInterval:      10 * time.Second,
		CallTimeout:       5 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxMessageSize:    1 << 20,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Header != nil {
		clone.Header = c.Header.Clone()
	}
	return &clone
}

func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := c.Clone()
	if out.ReconnectInterval == 0 {
		out.ReconnectInterval = defaults.ReconnectInterval
	}
	if out.MaxReconnectInterval == 0 {
		out.MaxReconnectInterval = out.ReconnectInterval
	}
	if out.PingInterval == 0 {
		out.PingInterval = defaults.PingInterval
	}
	if out.CallTimeout == 0 {
		out.CallTimeout = defaults.CallTimeout
	}
	if out.HandshakeTimeout == 0 {
		out.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return out
}
