// Package services – ReportService (the metrics aggregator)
//
// This file recomputes a debtor's engagement report from the full message
// log: average reply latency, reply percentage, last-reply timestamp, and the
// sentiment trend over labeled replies. The cached aggregate columns on the
// debtor row are a write-through convenience for list views; they are never
// read as input here, so re-running a report with no new messages yields an
// identical result.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-debt-backend/internal/domain"
	"github.com/tbourn/go-debt-backend/internal/repo"
)

// ReplyEntry is one reply row as exposed in the report payload.
type ReplyEntry struct {
	ID        string            `json:"id"`
	Message   string            `json:"message"`
	Sentiment *domain.Sentiment `json:"sentiment"`
	CreatedAt time.Time         `json:"created_at"`
}

// TrendPoint is one step of the sentiment trend: the i-th labeled reply,
// its signed score, and when it arrived.
type TrendPoint struct {
	Index     int       `json:"index"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is the point-in-time engagement view for one debtor.
type Report struct {
	Debtor *domain.Debtor `json:"debtor"`

	AvgReplyTime    string     `json:"avg_reply_time"` // HH:MM:SS
	ReplyPercentage float64    `json:"reply_percentage"`
	LastReplyAt     *time.Time `json:"last_reply_at"`

	TotalMessagesSent int64 `json:"total_messages_sent"`
	TotalReplies      int64 `json:"total_replies"`

	Replies        []ReplyEntry `json:"replies"`
	SentimentTrend []TrendPoint `json:"sentiment_trend"`
}

// ReportService computes engagement reports.
type ReportService struct {
	DB *gorm.DB
}

// Report builds the debtor's report from the full log. A debtor with no
// activity yields the degenerate-but-defined values ("00:00:00", 0%, nil)
// rather than an error. The scalar aggregates are written back onto the
// debtor row best effort: a write-through failure is logged and the computed
// report is still returned.
func (s *ReportService) Report(ctx context.Context, userID, debtorID string) (*Report, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Report",
		trace.WithAttributes(
			attribute.String("debtor.id", debtorID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	d, err := repo.GetDebtor(ctx, s.DB, debtorID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDebtorNotFound
		}
		return nil, err
	}

	msgs, err := repo.ListMessages(s.DB.WithContext(ctx), d.ID)
	if err != nil {
		return nil, err
	}

	// Index sent rows so back-references resolve in one pass.
	sentByID := make(map[string]*domain.Message, len(msgs))
	for i := range msgs {
		if msgs[i].Direction == domain.DirectionSent {
			sentByID[msgs[i].ID] = &msgs[i]
		}
	}

	var (
		latencies   []time.Duration
		replies     []ReplyEntry
		trend       []TrendPoint
		lastReplyAt *time.Time
	)
	for i := range msgs {
		m := &msgs[i]
		if m.Direction != domain.DirectionReply {
			continue
		}

		replies = append(replies, ReplyEntry{
			ID:        m.ID,
			Message:   m.Body,
			Sentiment: m.Sentiment,
			CreatedAt: m.CreatedAt,
		})

		if lastReplyAt == nil || m.CreatedAt.After(*lastReplyAt) {
			t := m.CreatedAt
			lastReplyAt = &t
		}

		// Latency only for matched replies; clock-skewed negative deltas are
		// excluded rather than erroring.
		if m.ReplyToID != nil {
			if sent, ok := sentByID[*m.ReplyToID]; ok {
				if dt := m.CreatedAt.Sub(sent.CreatedAt); dt >= 0 {
					latencies = append(latencies, dt)
				}
			}
		}

		if m.Sentiment != nil {
			trend = append(trend, TrendPoint{
				Index:     len(trend),
				Score:     m.Sentiment.Score(),
				CreatedAt: m.CreatedAt,
			})
		}
	}

	avg := FormatDuration(meanDuration(latencies))
	pct := replyPercentage(d.TotalReplies, d.TotalMessagesSent)

	rep := &Report{
		Debtor:            d,
		AvgReplyTime:      avg,
		ReplyPercentage:   pct,
		LastReplyAt:       lastReplyAt,
		TotalMessagesSent: d.TotalMessagesSent,
		TotalReplies:      d.TotalReplies,
		Replies:           replies,
		SentimentTrend:    trend,
	}

	// Cache write-through; failure must not block the report.
	if err := repo.UpdateAggregates(ctx, s.DB, d.ID, avg, pct, lastReplyAt); err != nil {
		log.Warn().Err(err).Str("debtor_id", d.ID).Msg("aggregate write-through failed")
	}

	return rep, nil
}

// meanDuration returns the arithmetic mean, or zero for an empty slice.
func meanDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

// replyPercentage clamps to 0 when nothing was sent and rounds to 2 decimals.
func replyPercentage(replies, sent int64) float64 {
	if sent <= 0 {
		return 0
	}
	p := float64(replies) / float64(sent) * 100
	return math.Round(p*100) / 100
}

// FormatDuration renders a duration as a fixed HH:MM:SS string. The hour
// field keeps widening past two digits; this is a wall-clock-style span, not
// a calendar computation. Negative inputs render as "00:00:00".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
