// Package channel implements the per-connection protocol engine.
//
// A Channel wraps exactly one Transport and pairs outbound correlated calls
// with inbound dispatch. Outbound, Call frames a request with a fresh
// correlation id, tracks it in the pending-call table and settles it exactly
// once: by the matching response or by timeout, whichever wins; the loser is
// a no-op. Inbound, request and publish frames are routed by method name to
// registered handlers, which run asynchronously and (for requests only)
// produce exactly one typed response.
//
// A Channel lives exactly as long as its Transport: it is created around an
// open connection, fires its connected listeners once at Start, and becomes
// permanently inert after the disconnected transition. Reconnection is the
// owner's job and always yields a brand-new Channel.
package channel
