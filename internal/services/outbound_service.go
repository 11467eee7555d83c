// Package services – OutboundService
//
// This file implements the outbound half of the engagement engine: generating
// a reminder text for a debtor, delivering it over the chat transport, and —
// only after the transport accepted it — recording the send in the message
// log together with the counter increment, in one transaction.
//
// Ordering is deliberate: transport first, persistence second. A transport
// failure therefore mutates nothing; a persistence failure after delivery is
// surfaced as an error and leaves the counters untouched (log row and counter
// always commit together).
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// debtor/user identifiers.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-debt-backend/internal/domain"
	"github.com/tbourn/go-debt-backend/internal/repo"
)

// OutboundService dispatches reminders and records them.
type OutboundService struct {
	DB        *gorm.DB
	Transport Transport
	Generator Generator

	// GenerateTimeout bounds one generator call. Zero means 15s.
	GenerateTimeout time.Duration
}

// SendResult is what a successful dispatch produced.
type SendResult struct {
	// Message is the recorded sent row.
	Message *domain.Message
	// TransportRef is the platform's reference for the delivered message.
	TransportRef string
}

// Send generates a reminder for the debtor, delivers it, and records the
// send atomically with the counter increment.
//
// Failure modes:
//   - ErrDebtorNotFound when the debtor does not exist for userID;
//   - ErrChannelNotLinked when no chat identity is linked yet;
//   - ErrNoTransport when the process has no transport configured;
//   - generator/transport errors pass through, with no state recorded.
func (s *OutboundService) Send(ctx context.Context, userID, debtorID string) (*SendResult, error) {
	tr := otel.Tracer("services/OutboundService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("debtor.id", debtorID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if s.Transport == nil {
		return nil, ErrNoTransport
	}

	d, err := repo.GetDebtor(ctx, s.DB, debtorID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDebtorNotFound
		}
		return nil, err
	}
	if !d.Linked() {
		return nil, ErrChannelNotLinked
	}

	text, err := s.reminderText(ctx, d)
	if err != nil {
		return nil, err
	}

	ref, err := s.Transport.Send(ctx, *d.ChatID, text)
	if err != nil {
		return nil, err
	}

	// Delivered. Log append and counter increment succeed or fail together.
	var sent *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.AppendSent(tx, d.ID, text)
		if err != nil {
			return err
		}
		if err := repo.IncrementSent(tx, d.ID); err != nil {
			return err
		}
		sent = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	remindersSent.Inc()
	return &SendResult{Message: sent, TransportRef: ref}, nil
}

// reminderText asks the generator for the message body, falling back to a
// fixed template when no generator is configured.
func (s *OutboundService) reminderText(ctx context.Context, d *domain.Debtor) (string, error) {
	if s.Generator == nil {
		return defaultReminder(d.Name, d.DebtAmount), nil
	}
	timeout := s.GenerateTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	gctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Generator.Reminder(gctx, d.Name, d.DebtAmount)
}

// defaultReminder is the template used when no generator is wired in.
func defaultReminder(name string, amount int64) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"Hello %s, this is a friendly reminder that an outstanding balance of %d is due. "+
			"Please arrange repayment at your earliest convenience. Thank you!",
		name, amount,
	)
}
