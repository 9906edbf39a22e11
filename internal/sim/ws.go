package sim

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Local development tool; origins are not a trust boundary here.
		return true
	},
}

type wsFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// handleChatStream serves one streamed coach exchange per connection: the
// client sends a message frame, the server answers with chunk frames and a
// final done frame.
func (s *Router) handleChatStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[sim] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		log.Printf("[sim] websocket read failed: %v", err)
		return
	}
	if frame.Type != "message" || strings.TrimSpace(frame.Text) == "" {
		writeFrame(conn, wsFrame{Type: "error", Text: "message frame required"})
		return
	}

	if streamer, ok := s.coach.(Streamer); ok {
		s.streamModelReply(r, conn, streamer, frame.Text)
		return
	}

	reply, err := s.coach.Reply(r.Context(), frame.Text)
	if err != nil {
		writeFrame(conn, wsFrame{Type: "error", Text: "coach unavailable"})
		return
	}

	// Scripted replies stream word by word so the client's streaming path
	// is exercised even without a model.
	for _, word := range strings.Fields(reply) {
		if !writeFrame(conn, wsFrame{Type: "chunk", Text: word + " "}) {
			return
		}
	}
	writeFrame(conn, wsFrame{Type: "done"})
}

func (s *Router) streamModelReply(r *http.Request, conn *websocket.Conn, streamer Streamer, text string) {
	stream, err := streamer.Stream(r.Context(), text)
	if err != nil {
		log.Printf("[sim] coach stream failed: %v", err)
		writeFrame(conn, wsFrame{Type: "error", Text: "coach unavailable"})
		return
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			writeFrame(conn, wsFrame{Type: "done"})
			return
		}
		if err != nil {
			log.Printf("[sim] coach stream recv failed: %v", err)
			writeFrame(conn, wsFrame{Type: "error", Text: "coach stream interrupted"})
			return
		}
		if chunk.Content == "" {
			continue
		}
		if !writeFrame(conn, wsFrame{Type: "chunk", Text: chunk.Content}) {
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, frame wsFrame) bool {
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[sim] websocket write failed: %v", err)
		return false
	}
	return true
}
