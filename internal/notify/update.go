package notify

import (
	"strconv"
	"time"
)

// Update is the subset of a Telegram webhook update the engine consumes.
// Everything else in the payload is ignored.
type Update struct {
	UpdateID int64          `json:"update_id"`
	Message  *UpdateMessage `json:"message"`
}

// UpdateMessage carries the inbound text and its chat session.
type UpdateMessage struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text string `json:"text"`
	Date int64  `json:"date"` // unix seconds, per the Bot API
}

// ChatID returns the chat session identity as the opaque string the rest of
// the system keys on.
func (m *UpdateMessage) ChatID() string {
	return strconv.FormatInt(m.Chat.ID, 10)
}

// ReceivedAt converts the platform timestamp; the zero time when absent.
func (m *UpdateMessage) ReceivedAt() time.Time {
	if m.Date == 0 {
		return time.Time{}
	}
	return time.Unix(m.Date, 0).UTC()
}
