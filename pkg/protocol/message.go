package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Type identifies the kind of a wire message.
type Type string

// Message kinds.
const (
	TypeRequest  Type = "request"
	TypePublish  Type = "publish"
	TypeResponse Type = "response"
)

// Response status codes.
const (
	// StatusOK means the handler produced a result.
	StatusOK = 200

	// StatusNotFound means the peer has no route for the requested method.
	StatusNotFound = 404

	// StatusHandlerError means the peer's handler failed.
	StatusHandlerError = 500
)

// Message is the wire unit. Which fields are populated depends on Type:
// requests carry ID and Method, publishes carry Method only, responses carry
// Ack and Code. Data is the arbitrary JSON payload in all three kinds.
type Message struct {
	Type   Type            `json:"type"`
	ID     string          `json:"id,omitempty"`
	Ack    string          `json:"ack,omitempty"`
	Method string          `json:"method,omitempty"`
	Code   int             `json:"code,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ErrorBody is the data payload of a failure response.
type ErrorBody struct {
	Message string `json:"message"`
}

// NewID returns a fresh correlation token: a 128-bit random id, collision
// resistant within (and beyond) a single channel's pending set.
func NewID() string {
	return uuid.NewString()
}

// NewRequest builds a request message with a fresh correlation id.
func NewRequest(method string, data any) (*Message, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:   TypeRequest,
		ID:     NewID(),
		Method: method,
		Data:   raw,
	}, nil
}

// NewPublish builds a fire-and-forget message. It carries no correlation id
// and elicits no reply.
func NewPublish(method string, data any) (*Message, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:   TypePublish,
		Method: method,
		Data:   raw,
	}, nil
}

// NewResponse builds a success response for the request with id ack.
func NewResponse(ack string, data any) (*Message, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type: TypeResponse,
		Ack:  ack,
		Code: StatusOK,
		Data: raw,
	}, nil
}

// NewErrorResponse builds a failure response carrying {"message": text}.
// Code must be StatusNotFound or StatusHandlerError.
func NewErrorResponse(ack string, code int, text string) *Message {
	raw, _ := json.Marshal(ErrorBody{Message: text})
	return &Message{
		Type: TypeResponse,
		Ack:  ack,
		Code: code,
		Data: raw,
	}
}

func marshalData(data any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal payload: %w", err)
	}
	return raw, nil
}

// ErrorText extracts the message text from a failure response payload.
// Falls back to the raw payload when it does not parse as an ErrorBody.
func ErrorText(data json.RawMessage) string {
	var body ErrorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return string(data)
}
