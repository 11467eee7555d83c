// Package services – InboundService (the correlator)
//
// This file implements the inbound half of the engagement engine. Every
// webhook event is either an identity claim or a reply:
//
//   - Unknown chat identity → the body is treated as a candidate contact
//     email. If an unlinked debtor carries that email, the chat identity is
//     assigned to them (first writer wins, at most once). No message row is
//     written for a link.
//   - Known chat identity → the body is a reply. It is bound to the most
//     recent reminder that no reply points to yet, or recorded unmatched when
//     every reminder is already answered. The reply row and the counter
//     increment commit in one transaction.
//
// Within one debtor the select-candidate/append/increment unit runs under the
// debtor's exclusive lock; events for different debtors proceed concurrently.
//
// Webhook delivery is at-least-once and this layer does not deduplicate:
// a redelivered event simply records another reply row and counter bump.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-debt-backend/internal/domain"
	"github.com/tbourn/go-debt-backend/internal/repo"
)

// InboundOutcome classifies what RecordInbound did with an event.
type InboundOutcome string

const (
	// OutcomeLinked: the event claimed a contact email and the chat identity
	// was linked to a debtor.
	OutcomeLinked InboundOutcome = "linked"
	// OutcomeReplied: the event was recorded as a reply (see Matched).
	OutcomeReplied InboundOutcome = "replied"
	// OutcomeUnmatched: the event could not be linked; no debtor carries the
	// claimed email unlinked, or the chat identity is taken elsewhere. No
	// state was mutated.
	OutcomeUnmatched InboundOutcome = "unmatched"
)

// InboundResult reports the effect of one webhook event.
type InboundResult struct {
	Outcome InboundOutcome
	// Matched is meaningful for OutcomeReplied: true when the reply was bound
	// to a specific sent message, false when recorded with a nil back-reference.
	Matched bool
	// Debtor is set for linked and replied outcomes.
	Debtor *domain.Debtor
	// Message is the recorded reply row for OutcomeReplied.
	Message *domain.Message
}

// InboundService resolves webhook events to identity links or replies.
type InboundService struct {
	DB    *gorm.DB
	Locks *DebtorLocks
}

// NewInboundService wires an InboundService with its own lock set.
func NewInboundService(db *gorm.DB) *InboundService {
	return &InboundService{DB: db, Locks: NewDebtorLocks()}
}

// RecordInbound processes one webhook event. receivedAt is the transport's
// receipt time; the zero value falls back to insert time.
//
// Link failures are not errors toward the caller: the result carries
// OutcomeUnmatched and no state is mutated. An error return means the unit of
// work itself failed (storage) and the event may be redelivered.
func (s *InboundService) RecordInbound(ctx context.Context, chatID, text string, receivedAt time.Time) (*InboundResult, error) {
	tr := otel.Tracer("services/InboundService")
	ctx, span := tr.Start(ctx, "RecordInbound",
		trace.WithAttributes(attribute.String("channel.id", chatID)),
	)
	defer span.End()

	text = strings.TrimSpace(text)

	d, err := repo.FindDebtorByChatID(ctx, s.DB, chatID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return s.link(ctx, chatID, text)
	}
	return s.reply(ctx, d, text, receivedAt)
}

// link treats text as a claimed contact email and tries to assign chatID to
// the matching unlinked debtor.
func (s *InboundService) link(ctx context.Context, chatID, text string) (*InboundResult, error) {
	email := strings.ToLower(text)
	if email == "" {
		identityLinks.WithLabelValues("unmatched").Inc()
		return &InboundResult{Outcome: OutcomeUnmatched}, nil
	}

	d, err := repo.LinkChatID(ctx, s.DB, email, chatID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrDuplicate) {
			// No unlinked debtor with that email, or the identity is already
			// claimed elsewhere. Silently unmatched toward the caller.
			identityLinks.WithLabelValues("unmatched").Inc()
			return &InboundResult{Outcome: OutcomeUnmatched}, nil
		}
		return nil, err
	}

	identityLinks.WithLabelValues("linked").Inc()
	log.Info().Str("debtor_id", d.ID).Msg("chat identity linked")
	return &InboundResult{Outcome: OutcomeLinked, Debtor: d}, nil
}

// reply records text as a reply from d, bound to the most recent unanswered
// reminder when one exists. The whole unit runs under d's lock and in one
// transaction so concurrent replies cannot bind to the same reminder and the
// counter stays consistent with the log.
func (s *InboundService) reply(ctx context.Context, d *domain.Debtor, text string, receivedAt time.Time) (*InboundResult, error) {
	unlock := s.Locks.Lock(d.ID)
	defer unlock()

	var (
		recorded *domain.Message
		matched  bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var replyTo *string
		candidate, err := repo.LatestUnansweredSent(tx, d.ID)
		switch {
		case err == nil:
			replyTo = &candidate.ID
			matched = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Unmatched replies are still recorded, never dropped.
		default:
			return err
		}

		m, err := repo.AppendReply(tx, d.ID, text, replyTo, receivedAt)
		if err != nil {
			return err
		}
		if err := repo.IncrementReplies(tx, d.ID); err != nil {
			return err
		}
		recorded = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	repliesRecorded.WithLabelValues(boolLabel(matched)).Inc()
	return &InboundResult{
		Outcome: OutcomeReplied,
		Matched: matched,
		Debtor:  d,
		Message: recorded,
	}, nil
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
