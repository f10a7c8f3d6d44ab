package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/crosstalk-rpc/crosstalk/internal/errors"
	"github.com/crosstalk-rpc/crosstalk/pkg/client"
	"github.com/crosstalk-rpc/crosstalk/pkg/server"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "crosstalk.json"

	// DefaultAddr is the default server listen address.
	DefaultAddr = ":8080"

	// DefaultURL is the default client endpoint.
	DefaultURL = "ws://localhost:8080/ws"
)

// Config represents the complete crosstalk.json configuration.
type Config struct {
	// Name is the service name, used in logs.
	Name string `json:"name,omitempty"`

	// Listen contains server endpoint configuration.
	Listen ListenConfig `json:"listen,omitempty"`

	// TLS contains secure-context configuration.
	TLS TLSConfig `json:"tls,omitempty"`

	// Limits contains timeout and size limits shared by both sides.
	Limits LimitsConfig `json:"limits,omitempty"`

	// Client contains dialing-side configuration.
	Client ClientConfig `json:"client,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ListenConfig contains server endpoint settings.
type ListenConfig struct {
	// Addr is the address to listen on.
	Addr string `json:"addr,omitempty"`
}

// TLSConfig contains secure-context settings. With Enabled set and no
// file paths, a self-signed certificate is generated.
type TLSConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	CertFile string `json:"certFile,omitempty"`
	KeyFile  string `json:"keyFile,omitempty"`
	CAFile   string `json:"caFile,omitempty"`
}

// LimitsConfig contains timeouts and size limits. Durations are strings
// in Go duration syntax (e.g. "10s").
type LimitsConfig struct {
	WriteTimeout    string `json:"writeTimeout,omitempty"`
	CallTimeout     string `json:"callTimeout,omitempty"`
	MaxMessageSize  int64  `json:"maxMessageSize,omitempty"`
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// ClientConfig contains dialing-side settings.
type ClientConfig struct {
	// URL is the WebSocket endpoint to dial.
	URL string `json:"url,omitempty"`

	// ReconnectInterval is the delay before reconnect attempts.
	ReconnectInterval string `json:"reconnectInterval,omitempty"`

	// MaxReconnectInterval caps the reconnect backoff.
	MaxReconnectInterval string `json:"maxReconnectInterval,omitempty"`

	// PingInterval is the health probe cadence. "off" disables probing.
	PingInterval string `json:"pingInterval,omitempty"`

	// InsecureSkipVerify disables certificate checks for wss endpoints.
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Name:   "crosstalk",
		Listen: ListenConfig{Addr: DefaultAddr},
		Client: ClientConfig{URL: DefaultURL},
	}
}

// Load reads configuration from the specified directory.
// It looks for crosstalk.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No crosstalk.json found in " + filepath.Dir(path)).
				WithSuggestion("Create crosstalk.json or pass --config with an explicit path")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse crosstalk.json: " + err.Error()).
			WithSuggestion("Check that crosstalk.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "crosstalk"
	}
	if c.Listen.Addr == "" {
		c.Listen.Addr = DefaultAddr
	}
	if c.Client.URL == "" {
		c.Client.URL = DefaultURL
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	durations := map[string]string{
		"limits.writeTimeout":         c.Limits.WriteTimeout,
		"limits.callTimeout":          c.Limits.CallTimeout,
		"limits.shutdownTimeout":      c.Limits.ShutdownTimeout,
		"client.reconnectInterval":    c.Client.ReconnectInterval,
		"client.maxReconnectInterval": c.Client.MaxReconnectInterval,
	}
	for field, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return errors.New("E122").
				WithDetail(field + " is not a valid duration: " + value).
				WithSuggestion(`Use Go duration syntax, e.g. "10s" or "1m30s"`)
		}
	}

	if v := c.Client.PingInterval; v != "" && v != "off" {
		if _, err := time.ParseDuration(v); err != nil {
			return errors.New("E122").
				WithDetail("client.pingInterval is not a valid duration: " + v).
				WithSuggestion(`Use a duration like "10s", or "off" to disable probing`)
		}
	}

	if c.Limits.MaxMessageSize < 0 {
		return errors.New("E122").
			WithDetail("limits.maxMessageSize must not be negative")
	}

	if c.TLS.Enabled && (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return errors.New("E122").
			WithDetail("tls.certFile and tls.keyFile must be set together").
			WithSuggestion("Set both paths, or neither to use a self-signed certificate")
	}

	return nil
}

// ServerConfig converts the file configuration into a server.Config.
func (c *Config) ServerConfig() *server.Config {
	cfg := server.DefaultConfig()
	cfg.Addr = c.Listen.Addr
	if c.TLS.Enabled {
		cfg.TLS = &server.TLSConfig{
			Enabled:  true,
			CertFile: c.TLS.CertFile,
			KeyFile:  c.TLS.KeyFile,
			CAFile:   c.TLS.CAFile,
		}
	}
	if d := duration(c.Limits.WriteTimeout); d > 0 {
		cfg.WriteTimeout = d
	}
	if d := duration(c.Limits.CallTimeout); d > 0 {
		cfg.CallTimeout = d
	}
	if d := duration(c.Limits.ShutdownTimeout); d > 0 {
		cfg.ShutdownTimeout = d
	}
	if c.Limits.MaxMessageSize > 0 {
		cfg.MaxMessageSize = c.Limits.MaxMessageSize
	}
	return cfg
}

// ClientConfig converts the file configuration into a client.Config.
func (c *Config) ClientConfig() *client.Config {
	cfg := client.DefaultConfig()
	cfg.URL = c.Client.URL
	cfg.InsecureSkipVerify = c.Client.InsecureSkipVerify
	if d := duration(c.Client.ReconnectInterval); d > 0 {
		cfg.ReconnectInterval = d
	}
	if d := duration(c.Client.MaxReconnectInterval); d > 0 {
		cfg.MaxReconnectInterval = d
	}
	if c.Client.PingInterval == "off" {
		cfg.PingInterval = -1
	} else if d := duration(c.Client.PingInterval); d > 0 {
		cfg.PingInterval = d
	}
	if d := duration(c.Limits.WriteTimeout); d > 0 {
		cfg.WriteTimeout = d
	}
	if d := duration(c.Limits.CallTimeout); d > 0 {
		cfg.CallTimeout = d
	}
	if c.Limits.MaxMessageSize > 0 {
		cfg.MaxMessageSize = c.Limits.MaxMessageSize
	}
	return cfg
}

// duration parses a duration string, returning zero for empty or invalid
// input. Validation happens in Validate; this is for converted configs.
func duration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
