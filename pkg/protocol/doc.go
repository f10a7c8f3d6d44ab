// Package protocol defines the Crosstalk wire format.
//
// Each WebSocket text frame carries exactly one JSON-encoded Message. Frame
// boundaries come from the transport; there is no internal length prefixing.
//
// Three message kinds exist:
//
//   - request:  { "type":"request", "id":"<token>", "method":"<name>", "data":<any> }
//   - publish:  { "type":"publish", "method":"<name>", "data":<any> }
//   - response: { "type":"response", "ack":"<token>", "code":200|404|500, "data":<any> }
//
// A request carries a correlation id and expects exactly one response whose
// ack matches that id. A publish expects no reply. Response codes map to
// StatusOK (success), StatusNotFound (no such method on the peer) and
// StatusHandlerError (the peer's handler failed); failure responses carry
// {"message": "<text>"} as data.
package protocol
