package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Default connection parameters.
const (
	DefaultWriteTimeout     = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultMaxMessageSize   = 1 << 20 // 1MB
)

// WSConfig tunes a WebSocket transport.
type WSConfig struct {
	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize is the maximum size of an incoming frame.
	// Default: 1MB.
	MaxMessageSize int64
}

func (c *WSConfig) withDefaults() *WSConfig {
	out := &WSConfig{}
	if c != nil {
		*out = *c
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = DefaultWriteTimeout
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = DefaultMaxMessageSize
	}
	return out
}

// WS is a Transport over a gorilla WebSocket connection. It works the same
// for dialed and accepted connections.
type WS struct {
	conn   *websocket.Conn
	config *WSConfig

	writeMu    sync.Mutex
	closed     atomic.Bool
	localClose atomic.Bool
}

// NewWS wraps an established WebSocket connection.
func NewWS(conn *websocket.Conn, config *WSConfig) *WS {
	cfg := config.withDefaults()
	conn.SetReadLimit(cfg.MaxMessageSize)
	return &WS{conn: conn, config: cfg}
}

// DialOptions configures an outbound WebSocket connection.
type DialOptions struct {
	// HandshakeTimeout bounds the dial and upgrade. Default: 10 seconds.
	HandshakeTimeout time.Duration

	// InsecureSkipVerify disables certificate validation for wss URLs.
	InsecureSkipVerify bool

	// EnableCompression negotiates permessage-deflate.
	EnableCompression bool

	// Header is sent with the upgrade request.
	Header http.Header

	// WriteTimeout and MaxMessageSize configure the resulting transport.
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// Dial opens a WebSocket connection to url and wraps it in a transport.
func Dial(ctx context.Context, url string, opts *DialOptions) (*WS, error) {
	if opts == nil {
		opts = &DialOptions{}
	}
	handshakeTimeout := opts.HandshakeTimeout
	if handshakeTimeout == 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  handshakeTimeout,
		EnableCompression: opts.EnableCompression,
	}
	if opts.InsecureSkipVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, &DialError{URL: url, Status: resp.Status, Err: err}
		}
		return nil, &DialError{URL: url, Err: err}
	}

	return NewWS(conn, &WSConfig{
		WriteTimeout:   opts.WriteTimeout,
		MaxMessageSize: opts.MaxMessageSize,
	}), nil
}

// Send writes one text frame. Safe for concurrent use.
func (w *WS) Send(data []byte) error {
	if w.closed.Load() {
		return ErrNotOpen
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	return nil
}

// Receive blocks until the next frame arrives. When the connection ends it
// returns a *CloseError carrying the close code and reason; local Close is
// reported as a normal closure.
func (w *WS) Receive() ([]byte, error) {
	for {
		msgType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed.Store(true)
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return nil, &CloseError{Code: ce.Code, Reason: ce.Text}
			}
			if w.localClose.Load() {
				return nil, &CloseError{Code: websocket.CloseNormalClosure}
			}
			return nil, err
		}
		// Binary frames are not part of the protocol; skip them.
		if msgType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

// IsOpen reports whether frames can still be sent.
func (w *WS) IsOpen() bool {
	return !w.closed.Load()
}

// Close sends a close frame and tears down the connection. Idempotent.
func (w *WS) Close() error {
	if !w.localClose.CompareAndSwap(false, true) {
		return nil
	}
	w.closed.Store(true)

	w.writeMu.Lock()
	w.conn.SetWriteDeadline(time.Now().Add(time.Second))
	w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	w.writeMu.Unlock()

	return w.conn.Close()
}
