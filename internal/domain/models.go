// Package domain defines the persistence models for debtors and their
// message log. These types are mapped with GORM and form the core data
// layer of the reminder-tracking application.
package domain

import "time"

// Direction is the closed tag distinguishing the two kinds of rows in the
// message log: reminders we sent out, and replies that came back in.
type Direction string

const (
	// DirectionSent marks an outbound reminder.
	DirectionSent Direction = "sent"
	// DirectionReply marks an inbound debtor reply.
	DirectionReply Direction = "reply"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionSent || d == DirectionReply
}

// Sentiment is the label a classifier assigns to an inbound reply.
// It is nullable on Message and write-once: enrichment never overwrites
// an existing label.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is one of the three known labels.
func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNeutral || s == SentimentNegative
}

// Score maps the label onto the signed scale used by the sentiment trend:
// positive → +1, neutral → 0, negative → -1. Unknown labels score 0.
func (s Sentiment) Score() int {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// Debtor represents one account being tracked for reminders and replies.
// It carries the running counters maintained transactionally alongside
// message-log appends, and cached aggregate fields recomputed by the report
// service. The cached fields are derived data and may be stale between
// report runs; the message log is the source of truth.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owning operator; indexed for retrieval.
//   - Name / Phone / Email: contact details from the uploaded book.
//     Email is stored lowercase and is how an inbound channel claims a record.
//   - ChatID: external chat-session identity (e.g. Telegram chat id).
//     Nil until the debtor links themselves; unique across all debtors and
//     assigned at most once (first writer wins).
//   - TotalMessagesSent / TotalReplies: monotonic running counters, mutated
//     only together with the matching message-log append.
//   - AvgReplyTime / ReplyPercentage / LastReplyAt: cached aggregates written
//     back best-effort by the report service.
type Debtor struct {
	ID     string `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID string `json:"user_id" gorm:"type:varchar(64);not null;index:idx_user_debtors"`

	Name       string `json:"name"        gorm:"type:varchar(255);not null"`
	Phone      string `json:"phone"       gorm:"type:varchar(32)"`
	Email      string `json:"email"       gorm:"type:varchar(255);not null;index"`
	DebtAmount int64  `json:"debt_amount" gorm:"not null;default:0"`

	ChatID *string `json:"chat_id,omitempty" gorm:"type:varchar(64);uniqueIndex:ux_debtor_chat"`

	TotalMessagesSent int64 `json:"total_messages_sent" gorm:"not null;default:0"`
	TotalReplies      int64 `json:"total_replies"       gorm:"not null;default:0"`

	AvgReplyTime    string     `json:"avg_reply_time"          gorm:"type:varchar(16);not null;default:''"`
	ReplyPercentage float64    `json:"reply_percentage"        gorm:"not null;default:0"`
	LastReplyAt     *time.Time `json:"last_reply_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Debtor.
func (Debtor) TableName() string { return "debtors" }

// Linked reports whether the debtor has an external chat identity assigned.
func (d *Debtor) Linked() bool { return d.ChatID != nil && *d.ChatID != "" }

// Message is one row of the append-only per-debtor message log. Rows are
// created either when a reminder is sent (direction "sent") or when a webhook
// delivers a reply (direction "reply"); the only mutation ever applied
// afterwards is attaching a sentiment label to a reply. Rows are removed only
// by the cascade when their debtor is deleted.
//
// ReplyToID is the back-reference from a reply to the sent message it
// answers. It is always nil for sent messages; for replies, nil means the
// reply could not be matched to any outstanding reminder (recorded anyway).
type Message struct {
	ID       string `json:"id"        gorm:"type:char(36);primaryKey"`
	DebtorID string `json:"debtor_id" gorm:"type:char(36);not null;index:idx_debtor_msgs,priority:1"`

	Direction Direction  `json:"direction"             gorm:"type:varchar(8);not null;check:direction IN ('sent','reply')"`
	Body      string     `json:"body"                  gorm:"type:text;not null"`
	Sentiment *Sentiment `json:"sentiment,omitempty"   gorm:"type:varchar(16)"`
	ReplyToID *string    `json:"reply_to_id,omitempty" gorm:"type:char(36);index"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_debtor_msgs,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`

	// Debtor is the owning account. Messages are cascade-deleted when their
	// debtor is removed.
	Debtor Debtor `json:"-" gorm:"foreignKey:DebtorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
