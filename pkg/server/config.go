package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/crosstalk-rpc/crosstalk/pkg/channel"
)

// TLSConfig selects the secure-context material for the listening endpoint.
// With Enabled set and no file paths, a self-signed pair is generated.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
}

// Config holds configuration for the WebSocket RPC server.
type Config struct {
	// Addr is the address to listen on. Default: ":8080".
	Addr string

	// Routes is the method table shared by every accepted channel.
	Routes channel.Routes

	// Interceptors wrap dispatch on every accepted channel.
	Interceptors []channel.Interceptor

	// TLS enables and configures the secure context. Default: disabled.
	TLS *TLSConfig

	// ExternalEndpoint marks the HTTP(S) endpoint as externally owned.
	// Start then resolves immediately and Stop leaves the endpoint to its
	// owner; mount Handler or WebSocketHandler yourself.
	ExternalEndpoint bool

	// DisableCompression turns off permessage-deflate negotiation.
	// Default: off, compression enabled.
	DisableCompression bool

	// ReadBufferSize is the WebSocket read buffer size. Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size. Default: 4096.
	WriteBufferSize int

	// CheckOrigin validates the upgrade request origin.
	// Default: same-origin (requests without an Origin header pass).
	CheckOrigin func(r *http.Request) bool

	// WriteTimeout is the per-frame write deadline. Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize caps inbound frames. Default: 1MB.
	MaxMessageSize int64

	// CallTimeout is the default timeout for server-initiated calls on
	// accepted channels. Default: 5 seconds.
	CallTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 30 seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     SameOriginCheck,
		WriteTimeout:    10 * time.Second,
		MaxMessageSize:  1 << 20,
		CallTimeout:     5 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// SameOriginCheck validates that the upgrade request origin matches the
// host. Requests without an Origin header (non-browser clients) pass.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return originURL.Host == r.Host
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.TLS != nil {
		tlsCopy := *c.TLS
		clone.TLS = &tlsCopy
	}
	return &clone
}

func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := c.Clone()
	if out.Addr == "" {
		out.Addr = defaults.Addr
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}
	if out.CallTimeout == 0 {
		out.CallTimeout = defaults.CallTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return out
}
