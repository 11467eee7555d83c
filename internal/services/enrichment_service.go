// Package services – EnrichmentService (the sentiment pass)
//
// This file implements the batch enrichment pass that labels unlabeled,
// non-empty replies via the external classifier. Each message is an
// independent unit of work: a classifier failure on one reply is logged and
// counted, and the pass continues with the rest. Labels are write-once; a
// reply that gained a label between listing and persisting is simply not
// counted as a success and will not be revisited (it no longer matches the
// unlabeled predicate).
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-debt-backend/internal/domain"
	"github.com/tbourn/go-debt-backend/internal/repo"
)

// EnrichmentSummary is the best-effort completion report of one pass.
type EnrichmentSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}

// EnrichmentService labels pending replies.
type EnrichmentService struct {
	DB         *gorm.DB
	Classifier Classifier

	// ClassifyTimeout bounds one classifier call. Zero means 10s.
	ClassifyTimeout time.Duration
}

// EnrichPending runs one pass over the unlabeled replies of debtorID, or of
// every debtor when debtorID is empty. Individual classifier failures do not
// abort the pass and are not retried within it; they stay unlabeled for a
// future pass. An error return means the pass could not run at all.
func (s *EnrichmentService) EnrichPending(ctx context.Context, debtorID string) (EnrichmentSummary, error) {
	tr := otel.Tracer("services/EnrichmentService")
	ctx, span := tr.Start(ctx, "EnrichPending",
		trace.WithAttributes(attribute.String("debtor.id", debtorID)),
	)
	defer span.End()

	var sum EnrichmentSummary
	if s.Classifier == nil {
		return sum, ErrNoClassifier
	}

	pending, err := repo.ListUnlabeledReplies(s.DB.WithContext(ctx), debtorID)
	if err != nil {
		return sum, err
	}

	for i := range pending {
		m := &pending[i]
		sum.Attempted++

		label, err := s.classifyOne(ctx, m.Body)
		if err != nil {
			enrichmentMessages.WithLabelValues("failed").Inc()
			log.Warn().Err(err).Str("message_id", m.ID).Msg("sentiment classification failed")
			continue
		}
		if !label.Valid() {
			enrichmentMessages.WithLabelValues("failed").Inc()
			log.Warn().Str("message_id", m.ID).Str("label", string(label)).Msg("classifier returned unknown label")
			continue
		}

		if err := repo.SetSentiment(s.DB.WithContext(ctx), m.ID, label); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				// Labeled concurrently; write-once holds, nothing to do.
				enrichmentMessages.WithLabelValues("skipped").Inc()
				continue
			}
			enrichmentMessages.WithLabelValues("failed").Inc()
			log.Warn().Err(err).Str("message_id", m.ID).Msg("persisting sentiment label failed")
			continue
		}

		enrichmentMessages.WithLabelValues("labeled").Inc()
		sum.Succeeded++
	}

	return sum, nil
}

func (s *EnrichmentService) classifyOne(ctx context.Context, body string) (domain.Sentiment, error) {
	timeout := s.ClassifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Classifier.Classify(cctx, body)
}
