// Package services – Prometheus instrumentation for the engagement engine.
//
// HTTP traffic metrics live in the middleware layer; the collectors here
// count domain events: reminders dispatched, replies correlated, identity
// links, and enrichment outcomes. Label cardinality is fixed and small.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// remindersSent counts successfully dispatched and recorded reminders.
	remindersSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debt_reminders_sent_total",
		Help: "Total number of reminders sent and recorded.",
	})

	// repliesRecorded counts recorded inbound replies by match outcome.
	repliesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_replies_recorded_total",
			Help: "Total number of inbound replies recorded.",
		},
		[]string{"matched"}, // "true" when bound to a sent message
	)

	// identityLinks counts identity-link attempts by outcome.
	identityLinks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_identity_links_total",
			Help: "Total number of chat identity link attempts.",
		},
		[]string{"outcome"}, // linked | unmatched
	)

	// enrichmentMessages counts per-message enrichment results.
	enrichmentMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debt_enrichment_messages_total",
			Help: "Total number of replies processed by enrichment passes.",
		},
		[]string{"result"}, // labeled | failed | skipped
	)
)

func init() {
	prometheus.MustRegister(remindersSent, repliesRecorded, identityLinks, enrichmentMessages)
}
