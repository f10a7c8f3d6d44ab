package channel

import (
	"context"
	"encoding/json"
)

// MethodPing is the built-in liveness route, present on every Channel unless
// the route table overrides it.
const MethodPing = "ping"

// Request is an inbound request or publish handed to a Handler. Channel is
// the connection the frame arrived on, so handlers can call back on it.
type Request struct {
	Method  string
	Payload json.RawMessage
	Channel *Channel
}

// Handler answers a named method. The returned value is serialized as the
// response payload; a returned error becomes a handler-error response
// carrying the error text. For publishes both are discarded.
type Handler func(ctx context.Context, req *Request) (any, error)

// Routes maps method names to handlers. The table is fixed at Channel
// construction and read-only afterwards.
type Routes map[string]Handler

// Interceptor wraps a Handler around dispatch, in the style of HTTP
// middleware. Interceptors run for every routed request and publish.
type Interceptor func(next Handler) Handler

// pingHandler answers the built-in ping route with a trivial acknowledgement.
func pingHandler(ctx context.Context, req *Request) (any, error) {
	return "pong", nil
}

// buildRoutes copies the route table, installs the built-in ping route when
// absent and applies the interceptor chain to every handler.
func buildRoutes(routes Routes, interceptors []Interceptor) Routes {
	built := make(Routes, len(routes)+1)
	for method, h := range routes {
		built[method] = wrap(h, interceptors)
	}
	if _, ok := built[MethodPing]; !ok {
		built[MethodPing] = wrap(pingHandler, interceptors)
	}
	return built
}

func wrap(h Handler, interceptors []Interceptor) Handler {
	for i := len(interceptors) - 1; i >= 0; i-- {
		h = interceptors[i](h)
	}
	return h
}
