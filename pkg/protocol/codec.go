package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode serializes a message to a single wire frame.
func Encode(m *Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", m.Type, err)
	}
	return data, nil
}

// Decode parses a wire frame and validates its shape. Frames that do not
// parse, or that are missing the fields their kind requires, are rejected;
// the caller drops them with a diagnostic rather than crashing.
func Decode(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &FrameError{Reason: "not a JSON object", Err: err}
	}

	switch m.Type {
	case TypeRequest:
		if m.ID == "" {
			return nil, &FrameError{Reason: "request without id"}
		}
		if m.Method == "" {
			return nil, &FrameError{Reason: "request without method"}
		}
	case TypePublish:
		if m.Method == "" {
			return nil, &FrameError{Reason: "publish without method"}
		}
	case TypeResponse:
		if m.Ack == "" {
			return nil, &FrameError{Reason: "response without ack"}
		}
		if m.Code != StatusOK && m.Code != StatusNotFound && m.Code != StatusHandlerError {
			return nil, &FrameError{Reason: fmt.Sprintf("response with unknown code %d", m.Code)}
		}
	default:
		return nil, &FrameError{Reason: fmt.Sprintf("unknown message type %q", m.Type)}
	}

	return &m, nil
}

// FrameError describes a frame that failed shape validation.
type FrameError struct {
	Reason string
	Err    error
}

// Error returns the error message.
func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: malformed frame: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol: malformed frame: %s", e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *FrameError) Unwrap() error {
	return e.Err
}
