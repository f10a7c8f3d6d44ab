package channel

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/crosstalk-rpc/crosstalk/pkg/protocol"
)

// dispatch routes an inbound request or publish to its handler. Handlers run
// asynchronously; replies for concurrent requests may therefore go out in
// completion order, not arrival order.
func (c *Channel) dispatch(msg *protocol.Message) {
	h, ok := c.routes[msg.Method]
	if !ok {
		if msg.Type == protocol.TypeRequest {
			c.sendMessage(protocol.NewErrorResponse(
				msg.ID,
				protocol.StatusNotFound,
				fmt.Sprintf("method '%s' not found", msg.Method),
			))
		} else {
			c.logger.Debug("dropping publish for unknown method", "method", msg.Method)
		}
		return
	}

	go c.runHandler(h, msg)
}

func (c *Channel) runHandler(h Handler, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic",
				"method", msg.Method,
				"panic", r,
				"stack", string(debug.Stack()))
			if msg.Type == protocol.TypeRequest {
				c.sendMessage(protocol.NewErrorResponse(
					msg.ID,
					protocol.StatusHandlerError,
					fmt.Sprintf("handler panic: %v", r),
				))
			}
		}
	}()

	result, err := h(context.Background(), &Request{
		Method:  msg.Method,
		Payload: msg.Data,
		Channel: c,
	})

	if msg.Type == protocol.TypePublish {
		// No reply path exists; results and failures are discarded.
		if err != nil {
			c.logger.Debug("publish handler failed", "method", msg.Method, "error", err)
		}
		return
	}

	if err != nil {
		c.sendMessage(protocol.NewErrorResponse(msg.ID, protocol.StatusHandlerError, err.Error()))
		return
	}

	resp, err := protocol.NewResponse(msg.ID, result)
	if err != nil {
		c.sendMessage(protocol.NewErrorResponse(msg.ID, protocol.StatusHandlerError, err.Error()))
		return
	}
	c.sendMessage(resp)
}

// sendMessage writes a protocol message, reporting failures to the logger;
// there is no caller to surface them to on the dispatch path.
func (c *Channel) sendMessage(msg *protocol.Message) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Warn("encode failed", "type", msg.Type, "error", err)
		return
	}
	if err := c.transport.Send(frame); err != nil {
		c.logger.Warn("send failed", "type", msg.Type, "error", err)
	}
}
