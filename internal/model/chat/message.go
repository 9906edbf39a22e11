package chat

import "time"

// Sender identifies which side of the conversation authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// DeliveryStatus tracks outgoing user messages; assistant messages carry none.
type DeliveryStatus string

const (
	StatusNone DeliveryStatus = ""
	StatusSent DeliveryStatus = "sent"
	StatusRead DeliveryStatus = "read"
)

// Message is a single conversation turn. Messages are immutable once
// appended to a Store; the only mutation is removal by id.
type Message struct {
	ID        int64          `json:"id"`
	Text      string         `json:"text"`
	Sender    Sender         `json:"sender"`
	Timestamp string         `json:"timestamp"`
	Status    DeliveryStatus `json:"status,omitempty"`
}

// Clock returns the wall-clock label shown next to a bubble, e.g. "10:05 AM".
func Clock(t time.Time) string {
	return t.Format("3:04 PM")
}
