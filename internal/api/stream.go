package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// StreamChunk is one piece of a streamed coach reply. Done marks the final
// chunk; Err is set instead of Text when the stream failed mid-way.
type StreamChunk struct {
	Text string
	Done bool
	Err  error
}

type streamFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// StreamText opens the coach's websocket channel, submits a message, and
// delivers reply chunks on the returned channel. The channel is closed
// after the done or error chunk. Cancelling the context tears the
// connection down and ends the stream.
//
// Callers fall back to SendText when the dial fails; the socket is an
// optimization, not the contract.
func (c *Client) StreamText(ctx context.Context, message string) (<-chan StreamChunk, error) {
	wsURL := strings.Replace(c.url("chat/stream/"), "http", "ws", 1)

	header := http.Header{}
	if tok := c.session.Token(); tok != "" {
		header.Set("Authorization", "Token "+tok)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, &APIError{Status: status, Message: "dial coach stream: " + err.Error()}
	}

	if err := conn.WriteJSON(streamFrame{Type: "message", Text: message}); err != nil {
		conn.Close()
		return nil, &APIError{Message: "send over coach stream: " + err.Error()}
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer conn.Close()

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-done:
			}
		}()

		for {
			var frame streamFrame
			if err := conn.ReadJSON(&frame); err != nil {
				if ctx.Err() != nil {
					return
				}
				out <- StreamChunk{Err: &APIError{Message: "read coach stream: " + err.Error()}}
				return
			}

			switch frame.Type {
			case "chunk":
				out <- StreamChunk{Text: frame.Text}
			case "done":
				out <- StreamChunk{Done: true}
				return
			case "error":
				msg := frame.Text
				if msg == "" {
					msg = "coach stream failed"
				}
				out <- StreamChunk{Err: &APIError{Message: msg}}
				return
			default:
				// Unknown frame types are skipped so protocol additions
				// don't break older clients.
			}
		}
	}()

	return out, nil
}
