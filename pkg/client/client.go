// Package client dials a WebSocket RPC endpoint and keeps the connection
// alive: it probes health with the built-in ping method and reconnects
// with backoff when the connection drops. A manual Close suppresses
// reconnection.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"

	"github.com/crosstalk-rpc/crosstalk/pkg/channel"
	"github.com/crosstalk-rpc/crosstalk/pkg/transport"
)

// ErrAlreadyConnected is returned when Connect is called on a live client.
var ErrAlreadyConnected = errors.New("client: already connected")

// Client is the dialing side of an RPC channel. It owns at most one live
// channel at a time and replaces it transparently on reconnect.
type Client struct {
	config *Config
	logger *slog.Logger

	mu          sync.Mutex
	ch          *channel.Channel
	stop        chan struct{}
	manualClose bool

	reconnecting atomic.Bool

	listenerMu     sync.Mutex
	onConnected    []func()
	onDisconnected []func(code int, reason string)
	onError        []func(err error)
}

// New creates a Client for the given endpoint. Nil or partially zero
// configs are filled with defaults. Call Connect to establish the
// connection.
func New(config *Config) *Client {
	cfg := config.withDefaults()
	return &Client{
		config: cfg,
		logger: cfg.Logger.With("component", "client", "url", cfg.URL),
	}
}

// OnConnected registers a listener fired after every successful connect,
// including reconnects.
func (c *Client) OnConnected(fn func()) {
	c.listenerMu.Lock()
	c.onConnected = append(c.onConnected, fn)
	c.listenerMu.Unlock()
}

// OnDisconnected registers a listener fired with the close code and
// reason whenever the connection drops.
func (c *Client) OnDisconnected(fn func(code int, reason string)) {
	c.listenerMu.Lock()
	c.onDisconnected = append(c.onDisconnected, fn)
	c.listenerMu.Unlock()
}

// OnError registers a listener for transport and reconnect errors.
func (c *Client) OnError(fn func(err error)) {
	c.listenerMu.Lock()
	c.onError = append(c.onError, fn)
	c.listenerMu.Unlock()
}

// Connect dials the endpoint once. It does not retry; reconnection only
// kicks in after an established connection drops. Connecting an already
// live client fails with ErrAlreadyConnected.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.ch != nil && c.ch.IsOpen() {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()
	return c.open(true)
}

// IsConnected reports whether a live channel is attached.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch != nil && c.ch.IsOpen()
}

// Call sends a request on the current channel and waits for the reply.
// Without a live channel it fails immediately with ErrNotConnected.
func (c *Client) Call(ctx context.Context, method string, data any, timeout time.Duration) (json.RawMessage, error) {
	ch := c.current()
	if ch == nil {
		return nil, channel.ErrNotConnected
	}
	return ch.Call(ctx, method, data, timeout)
}

// Publish sends a fire-and-forget message on the current channel. Without
// a live channel the message is dropped.
func (c *Client) Publish(method string, data any) {
	ch := c.current()
	if ch == nil {
		c.logger.Debug("publish dropped, not connected", "method", method)
		return
	}
	ch.Publish(method, data)
}

// Close shuts the connection down for good: reconnection is suppressed
// until the next explicit Connect. Safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.manualClose {
		c.mu.Unlock()
		return nil
	}
	c.manualClose = true
	ch := c.ch
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if ch != nil {
		return ch.Close()
	}
	return nil
}

func (c *Client) current() *channel.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch
}

// open dials the transport, wraps it in a channel and attaches it as the
// current connection. The manual-close flag is reset here, on successful
// open only. A reconnect-path open (explicit false) that finds the flag set
// under the lock discards the fresh connection instead of attaching it: the
// Close landed while the dial was in flight and must win.
func (c *Client) open(explicit bool) error {
	ws, err := transport.Dial(context.Background(), c.config.URL, &transport.DialOptions{
		HandshakeTimeout:   c.config.HandshakeTimeout,
		InsecureSkipVerify: c.config.InsecureSkipVerify,
		EnableCompression:  !c.config.DisableCompression,
		Header:             c.config.Header,
		WriteTimeout:       c.config.WriteTimeout,
		MaxMessageSize:     c.config.MaxMessageSize,
	})
	if err != nil {
		return err
	}

	ch := channel.New(ws, &channel.Config{
		Routes:       c.config.Routes,
		Interceptors: c.config.Interceptors,
		CallTimeout:  c.config.CallTimeout,
		Logger:       c.logger,
	})
	ch.OnConnected(c.fireConnected)
	ch.OnDisconnected(func(code int, reason string) {
		c.handleDisconnect(ch, code, reason)
	})
	ch.OnError(c.fireError)

	c.mu.Lock()
	if !explicit && c.manualClose {
		c.mu.Unlock()
		ws.Close()
		return nil
	}
	c.ch = ch
	c.stop = make(chan struct{})
	c.manualClose = false
	c.mu.Unlock()

	ch.Start()
	if c.config.PingInterval > 0 {
		go c.pingLoop(ch)
	}
	c.logger.Info("connected")
	return nil
}

// pingLoop periodically calls the built-in ping method. A failed probe
// closes the channel, which in turn triggers reconnection.
func (c *Client) pingLoop(ch *channel.Channel) {
	interval := c.config.PingInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ch.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval/2)
			_, err := ch.Call(ctx, channel.MethodPing, nil, interval/2)
			cancel()
			if err != nil {
				c.logger.Warn("ping probe failed, closing connection", "error", err)
				ch.Close()
				return
			}
		}
	}
}

func (c *Client) handleDisconnect(ch *channel.Channel, code int, reason string) {
	c.mu.Lock()
	if c.ch == ch {
		c.ch = nil
	}
	stop := c.stop
	manual := c.manualClose
	c.mu.Unlock()

	c.logger.Info("disconnected", "code", code, "reason", reason)
	c.fireDisconnected(code, reason)

	if manual || c.config.DisableReconnect {
		return
	}
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	go c.reconnectLoop(stop)
}

// reconnectLoop retries until a connect succeeds or the client is closed.
func (c *Client) reconnectLoop(stop chan struct{}) {
	defer c.reconnecting.Store(false)

	b := &backoff.Backoff{
		Min:    c.config.ReconnectInterval,
		Max:    c.config.MaxReconnectInterval,
		Factor: 2,
	}

	for {
		delay := b.Duration()
		c.logger.Info("reconnecting", "attempt", int(b.Attempt()), "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		c.mu.Lock()
		manual := c.manualClose
		c.mu.Unlock()
		if manual {
			return
		}
		if err := c.open(false); err != nil {
			c.logger.Warn("reconnect attempt failed", "error", err)
			c.fireError(err)
			continue
		}
		return
	}
}

func (c *Client) fireConnected() {
	c.listenerMu.Lock()
	listeners := append([]func(){}, c.onConnected...)
	c.listenerMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (c *Client) fireDisconnected(code int, reason string) {
	c.listenerMu.Lock()
	listeners := append([]func(int, string){}, c.onDisconnected...)
	c.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(code, reason)
	}
}

func (c *Client) fireError(err error) {
	c.listenerMu.Lock()
	listeners := append([]func(error){}, c.onError...)
	c.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(err)
	}
}
