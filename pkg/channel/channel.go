package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crosstalk-rpc/crosstalk/pkg/protocol"
	"github.com/crosstalk-rpc/crosstalk/pkg/transport"
)

// DefaultCallTimeout is the per-call timeout used when none is given.
const DefaultCallTimeout = 5 * time.Second

// Close code reported when the transport failed without a close handshake.
const abnormalClosureCode = 1006

// Config holds construction-time configuration for a Channel.
type Config struct {
	// Routes is the method table answered on this connection. The built-in
	// ping route is added unless the table overrides it.
	Routes Routes

	// Interceptors wrap every routed handler, outermost first.
	Interceptors []Interceptor

	// CallTimeout is the default timeout for Call. Default: 5 seconds.
	CallTimeout time.Duration

	// Logger receives diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Channel is the protocol engine for one Transport. See the package
// documentation for the lifecycle and settlement rules.
type Channel struct {
	transport   transport.Transport
	routes      Routes
	callTimeout time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingCall

	listenerMu     sync.Mutex
	onConnected    []func()
	onDisconnected []func(code int, reason string)
	onError        []func(err error)

	started atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
}

type settlement struct {
	data json.RawMessage
	err  error
}

type pendingCall struct {
	id   string
	done chan settlement
}

// New wraps an open Transport in a Channel. Call Start after registering
// lifecycle listeners.
func New(t transport.Transport, config *Config) *Channel {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	callTimeout := config.CallTimeout
	if callTimeout == 0 {
		callTimeout = DefaultCallTimeout
	}

	return &Channel{
		transport:   t,
		routes:      buildRoutes(config.Routes, config.Interceptors),
		callTimeout: callTimeout,
		logger:      logger.With("component", "channel"),
		pending:     make(map[string]*pendingCall),
		done:        make(chan struct{}),
	}
}

// OnConnected registers a listener fired once, synchronously, when the
// Channel starts over its already-open transport.
func (c *Channel) OnConnected(fn func()) {
	c.listenerMu.Lock()
	c.onConnected = append(c.onConnected, fn)
	c.listenerMu.Unlock()
}

// OnDisconnected registers a listener for the closed transition. Transport
// close and transport error both converge here, exactly once.
func (c *Channel) OnDisconnected(fn func(code int, reason string)) {
	c.listenerMu.Lock()
	c.onDisconnected = append(c.onDisconnected, fn)
	c.listenerMu.Unlock()
}

// OnError registers a listener for transport-level errors.
func (c *Channel) OnError(fn func(err error)) {
	c.listenerMu.Lock()
	c.onError = append(c.onError, fn)
	c.listenerMu.Unlock()
}

// Start fires the connected listeners and begins reading frames. It must be
// called exactly once.
func (c *Channel) Start() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}

	c.listenerMu.Lock()
	connected := append([]func(){}, c.onConnected...)
	c.listenerMu.Unlock()
	for _, fn := range connected {
		fn()
	}

	go c.readLoop()
}

// IsOpen reports whether the Channel can still send frames.
func (c *Channel) IsOpen() bool {
	return !c.closed.Load() && c.transport.IsOpen()
}

// Done is closed when the Channel has become inert.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Close tears down the underlying transport. The disconnected transition is
// observed through the read loop, as with any other close.
func (c *Channel) Close() error {
	return c.transport.Close()
}

// Logger returns the channel's diagnostic logger.
func (c *Channel) Logger() *slog.Logger {
	return c.logger
}

// Call sends a request and blocks until the matching response, the timeout
// (DefaultCallTimeout when zero), context cancellation, or channel close.
// It fails immediately with ErrNotConnected when the transport is not open;
// in that case no pending entry is registered.
func (c *Channel) Call(ctx context.Context, method string, data any, timeout time.Duration) (json.RawMessage, error) {
	if !c.IsOpen() {
		return nil, ErrNotConnected
	}
	if timeout <= 0 {
		timeout = c.callTimeout
	}

	msg, err := protocol.NewRequest(method, data)
	if err != nil {
		return nil, err
	}
	frame, err := protocol.Encode(msg)
	if err != nil {
		return nil, err
	}

	pc := &pendingCall{id: msg.ID, done: make(chan settlement, 1)}
	c.mu.Lock()
	c.pending[msg.ID] = pc
	c.mu.Unlock()

	if err := c.transport.Send(frame); err != nil {
		c.take(msg.ID)
		return nil, fmt.Errorf("channel: send request %q: %w", method, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s := <-pc.done:
		return s.data, s.err

	case <-timer.C:
		if c.take(msg.ID) == nil {
			// A response won the race; its settlement is already in flight.
			s := <-pc.done
			return s.data, s.err
		}
		return nil, fmt.Errorf("%w: no response to %q within %v", ErrTimeout, method, timeout)

	case <-ctx.Done():
		if c.take(msg.ID) == nil {
			s := <-pc.done
			return s.data, s.err
		}
		return nil, ctx.Err()
	}
}

// Publish sends a fire-and-forget message. There is no caller awaiting a
// result, so failures go to the logger instead of an error return.
func (c *Channel) Publish(method string, data any) {
	if !c.IsOpen() {
		c.logger.Warn("publish dropped: not connected", "method", method)
		return
	}

	msg, err := protocol.NewPublish(method, data)
	if err != nil {
		c.logger.Warn("publish dropped", "method", method, "error", err)
		return
	}
	frame, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Warn("publish dropped", "method", method, "error", err)
		return
	}
	if err := c.transport.Send(frame); err != nil {
		c.logger.Warn("publish failed", "method", method, "error", err)
	}
}

// take removes and returns the pending call for id, or nil if it was already
// settled. Whichever path takes the entry owns its settlement.
func (c *Channel) take(id string) *pendingCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	pc, ok := c.pending[id]
	if !ok {
		return nil
	}
	delete(c.pending, id)
	return pc
}

// readLoop delivers inbound frames in transport order until the connection
// ends, then drives the disconnected transition.
func (c *Channel) readLoop() {
	for {
		data, err := c.transport.Receive()
		if err != nil {
			code, reason := abnormalClosureCode, ""
			if ce, ok := err.(*transport.CloseError); ok {
				code, reason = ce.Code, ce.Reason
			} else {
				c.emitError(err)
			}
			c.teardown(code, reason)
			return
		}
		c.handleFrame(data)
	}
}

func (c *Channel) handleFrame(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		c.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeResponse:
		c.settle(msg)
	case protocol.TypeRequest, protocol.TypePublish:
		c.dispatch(msg)
	}
}

// settle routes a response to the pending call with the matching ack. A
// response for an absent entry (already timed out, or unknown id) is
// silently dropped.
func (c *Channel) settle(msg *protocol.Message) {
	pc := c.take(msg.Ack)
	if pc == nil {
		c.logger.Debug("dropping response with no pending call", "ack", msg.Ack)
		return
	}

	switch msg.Code {
	case protocol.StatusOK:
		pc.done <- settlement{data: msg.Data}
	default:
		pc.done <- settlement{err: &RemoteError{
			Code:    msg.Code,
			Message: protocol.ErrorText(msg.Data),
		}}
	}
}

// teardown performs the closed transition exactly once: pending calls are
// rejected, disconnected listeners run, and the Channel becomes inert.
func (c *Channel) teardown(code int, reason string) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	abandoned := c.pending
	c.pending = make(map[string]*pendingCall)
	c.mu.Unlock()
	for _, pc := range abandoned {
		pc.done <- settlement{err: ErrClosed}
	}

	c.listenerMu.Lock()
	disconnected := append([]func(code int, reason string){}, c.onDisconnected...)
	c.listenerMu.Unlock()
	for _, fn := range disconnected {
		fn(code, reason)
	}

	close(c.done)
}

func (c *Channel) emitError(err error) {
	c.listenerMu.Lock()
	listeners := append([]func(error){}, c.onError...)
	c.listenerMu.Unlock()

	if len(listeners) == 0 {
		c.logger.Error("transport error", "error", err)
		return
	}
	for _, fn := range listeners {
		fn(err)
	}
}
