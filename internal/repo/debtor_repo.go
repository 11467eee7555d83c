// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Debtor model.
//
// All functions accept a *gorm.DB handle, making them safe for use within
// transactions or connection-scoped operations. They follow the "thin
// repository" approach: no business logic, only CRUD persistence and query
// composition.
//
// Error semantics:
//   - When a debtor is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - LinkChatID returns ErrDuplicate when the chat identity is already
//     claimed by another debtor (unique index on chat_id).
//   - On other DB errors the raw gorm error is propagated.
//
// The counter helpers (IncrementSent, IncrementReplies) are deliberately
// single-statement additive updates. They are meant to run inside the same
// transaction as the corresponding message-log append so that counter and
// log row commit or roll back together; callers must treat a zero-rows
// result as fatal to that transaction.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-debt-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation, e.g. a chat identity
// that is already linked to a different debtor, or an idempotency-key replay.
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation recognizes the UNIQUE-constraint errors surfaced by the
// pure-Go SQLite driver, which often arrive as plain-text messages rather
// than typed errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateDebtor inserts a new Debtor row owned by userID. The debtor ID is a
// randomly generated UUID and CreatedAt is set to UTC. Counters start at zero.
func CreateDebtor(ctx context.Context, db *gorm.DB, userID, name, phone, email string, debt int64) (*domain.Debtor, error) {
	d := &domain.Debtor{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Phone:      phone,
		Email:      email,
		DebtAmount: debt,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// GetDebtor fetches a single debtor by its ID and owner (userID). If the
// record does not exist, it returns ErrNotFound.
func GetDebtor(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Debtor, error) {
	var d domain.Debtor
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDebtorByID fetches a debtor by primary key regardless of owner. Used by
// internal passes (correlation, enrichment) that act on behalf of the system
// rather than an operator.
func GetDebtorByID(ctx context.Context, db *gorm.DB, id string) (*domain.Debtor, error) {
	var d domain.Debtor
	if err := db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// CountDebtors returns the total number of debtors owned by userID.
func CountDebtors(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Debtor{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListDebtorsPage returns a paginated slice of debtors for userID, ordered by
// creation time descending. Use CountDebtors to obtain the total for
// pagination metadata.
func ListDebtorsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Debtor, error) {
	var out []domain.Debtor
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// FindDebtorByChatID returns the debtor linked to the given external chat
// identity, or ErrNotFound when the identity is not linked to anyone.
func FindDebtorByChatID(ctx context.Context, db *gorm.DB, chatID string) (*domain.Debtor, error) {
	var d domain.Debtor
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at desc").
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// LinkChatID assigns chatID to the oldest debtor with the given email that
// has no chat identity yet (first writer wins, assigned at most once).
//
// Returns:
//   - the linked debtor on success;
//   - ErrNotFound when no unlinked debtor carries that email;
//   - ErrDuplicate when chatID is already claimed by another debtor.
func LinkChatID(ctx context.Context, db *gorm.DB, email, chatID string) (*domain.Debtor, error) {
	var d domain.Debtor
	err := db.WithContext(ctx).
		Where("email = ? AND chat_id IS NULL", email).
		Order("created_at asc").
		First(&d).Error
	if err != nil {
		return nil, err
	}

	// Guard on chat_id IS NULL so a concurrent linker cannot overwrite.
	res := db.WithContext(ctx).
		Model(&domain.Debtor{}).
		Where("id = ? AND chat_id IS NULL", d.ID).
		Update("chat_id", chatID)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, ErrDuplicate
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	d.ChatID = &chatID
	return &d, nil
}

// IncrementSent adds one to total_messages_sent. Zero rows affected means the
// debtor disappeared underneath the transaction and is returned as ErrNotFound.
func IncrementSent(db *gorm.DB, id string) error {
	return incrementCounter(db, id, "total_messages_sent")
}

// IncrementReplies adds one to total_replies.
func IncrementReplies(db *gorm.DB, id string) error {
	return incrementCounter(db, id, "total_replies")
}

func incrementCounter(db *gorm.DB, id, column string) error {
	res := db.Model(&domain.Debtor{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAggregates writes the recomputed report aggregates back onto the
// debtor row. This is a cache write-through; callers treat failure as
// non-fatal because the values are derived and recomputable.
func UpdateAggregates(ctx context.Context, db *gorm.DB, id string, avgReplyTime string, replyPercentage float64, lastReplyAt *time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Debtor{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"avg_reply_time":   avgReplyTime,
			"reply_percentage": replyPercentage,
			"last_reply_at":    lastReplyAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDebtor removes a debtor owned by userID. The delete is a hard delete
// so the foreign-key cascade removes the debtor's message log with it.
func DeleteDebtor(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Debtor{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
