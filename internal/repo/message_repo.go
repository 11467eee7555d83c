// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// message log.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-debt-backend/internal/domain"
)

// AppendSent inserts an outbound reminder row for the debtor.
func AppendSent(db *gorm.DB, debtorID, body string) (*domain.Message, error) {
	m := &domain.Message{
		ID:        uuid.NewString(),
		DebtorID:  debtorID,
		Direction: domain.DirectionSent,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// AppendReply inserts an inbound reply row. replyToID carries the
// back-reference to the sent message being answered; nil records an
// unmatched reply. receivedAt stamps the row when the transport supplied a
// receipt time; the zero value falls back to insert time.
func AppendReply(db *gorm.DB, debtorID, body string, replyToID *string, receivedAt time.Time) (*domain.Message, error) {
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	m := &domain.Message{
		ID:        uuid.NewString(),
		DebtorID:  debtorID,
		Direction: domain.DirectionReply,
		Body:      body,
		ReplyToID: replyToID,
		CreatedAt: receivedAt.UTC(),
	}
	return m, db.Create(m).Error
}

// LatestUnansweredSent selects the most recent sent message for the debtor
// that no reply points to yet (tie-break: highest CreatedAt, then highest ID).
// Returns ErrNotFound when every reminder already has a reply bound to it.
func LatestUnansweredSent(db *gorm.DB, debtorID string) (*domain.Message, error) {
	var m domain.Message
	err := db.
		Where("debtor_id = ? AND direction = ?", debtorID, domain.DirectionSent).
		Where("NOT EXISTS (SELECT 1 FROM messages r WHERE r.reply_to_id = messages.id)").
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns the debtor's full log ordered deterministically
// (CreatedAt ASC, ID ASC).
func ListMessages(db *gorm.DB, debtorID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.
		Where("debtor_id = ?", debtorID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListReplies returns only the reply rows, ordered (CreatedAt ASC, ID ASC).
func ListReplies(db *gorm.DB, debtorID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.
		Where("debtor_id = ? AND direction = ?", debtorID, domain.DirectionReply).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListUnlabeledReplies returns non-empty reply rows without a sentiment label,
// the work queue for an enrichment pass. An empty debtorID spans all debtors.
func ListUnlabeledReplies(db *gorm.DB, debtorID string) ([]domain.Message, error) {
	q := db.
		Where("direction = ? AND sentiment IS NULL AND body <> ''", domain.DirectionReply).
		Order("created_at ASC, id ASC")
	if debtorID != "" {
		q = q.Where("debtor_id = ?", debtorID)
	}
	var out []domain.Message
	err := q.Find(&out).Error
	return out, err
}

// SetSentiment attaches a label to an unlabeled reply. The predicate keeps
// the assignment monotonic: a row that already carries a label is never
// overwritten, and sent rows are never labeled. Zero rows affected surfaces
// as ErrNotFound.
func SetSentiment(db *gorm.DB, messageID string, s domain.Sentiment) error {
	res := db.Model(&domain.Message{}).
		Where("id = ? AND direction = ? AND sentiment IS NULL", messageID, domain.DirectionReply).
		Update("sentiment", s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMessage fetches a message by ID.
func GetMessage(db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(db *gorm.DB, debtorID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM messages WHERE debtor_id = ?", debtorID).Scan(&total).Error
	return total, err
}
