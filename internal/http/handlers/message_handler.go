// Reminder and report HTTP handlers.
//
// This file exposes the engagement endpoints for a single debtor:
//   - POST /debtors/{id}/send    (generate, deliver, and record a reminder)
//   - GET  /debtors/{id}/report  (engagement report with reply metrics)
//   - POST /debtors/{id}/enrich  (label unlabeled replies for one debtor)
//   - POST /enrich               (label unlabeled replies across all debtors)
//
// Handlers are transport-thin:
//   - validate inputs (UUID path params)
//   - delegate to application services
//   - implement idempotency semantics for the send operation
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// send exists for (user, debtor, key), the handler returns that recorded
// outbound message and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-debt-backend/internal/domain"
	"github.com/tbourn/go-debt-backend/internal/http/middleware"
	"github.com/tbourn/go-debt-backend/internal/repo"
	"github.com/tbourn/go-debt-backend/internal/services"
)

//
// DTOs
//

// SendReminderResponse is the JSON envelope for a delivered reminder.
type SendReminderResponse struct {
	// Message is the outbound message recorded for this send.
	Message *domain.Message `json:"message"`
	// TransportRef is the provider-side delivery reference, when available.
	TransportRef string `json:"transport_ref,omitempty" example:"1048"`
}

//
// Handlers
//

// SendReminder godoc
// @ID          sendReminder
// @Summary     Send a payment reminder
// @Description Generates a reminder for the debtor, delivers it over the chat channel,
// @Description and records it atomically with the engagement counters.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Reminders
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "User ID that owns the debtor"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Debtor ID (UUID)"              format(uuid)
//
// @Success     200  {object}  handlers.SendReminderResponse  "Recorded reminder"
// @Failure     400  {object}  handlers.ErrorResponse         "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse         "Debtor not found"
// @Failure     412  {object}  handlers.ErrorResponse         "Channel not linked"
// @Failure     502  {object}  handlers.ErrorResponse         "Delivery failed"
// @Router      /debtors/{id}/send [post]
func (h *Handlers) SendReminder(c *gin.Context) {
	ctx := c.Request.Context()
	debtorID := c.Param("id")

	if _, err := uuid.Parse(debtorID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "debtor id must be a UUID")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path): read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.sendSvc.(*services.OutboundService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, debtorID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetMessage(svc.DB, rec.MessageID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, SendReminderResponse{Message: prev})
					return
				}
			}
		}
	}

	res, err := h.sendSvc.Send(ctx, currentUser, debtorID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDebtorNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "debtor not found")
		case errors.Is(err, services.ErrChannelNotLinked):
			fail(c, http.StatusPreconditionFailed, ErrCodePrecondition, "debtor has not linked a chat account")
		case errors.Is(err, services.ErrNoTransport):
			fail(c, http.StatusServiceUnavailable, ErrCodeSendFailed, "no outbound transport configured")
		default:
			fail(c, http.StatusBadGateway, ErrCodeSendFailed, err.Error())
		}
		return
	}

	// Idempotency (store path): best effort.
	if idemKey != "" {
		if svc, okSvc := h.sendSvc.(*services.OutboundService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, debtorID, idemKey, res.Message.ID, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, SendReminderResponse{
		Message:      res.Message,
		TransportRef: res.TransportRef,
	})
}

// ReportDebtor godoc
// @ID          reportDebtor
// @Summary     Engagement report for a debtor
// @Description Returns reply latency, reply percentage, last reply time, the reply log
// @Description with sentiment labels, and the sentiment trend series.
// @Tags        Reports
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Debtor ID (UUID)"       format(uuid)
//
// @Success     200  {object}  services.Report
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Debtor not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /debtors/{id}/report [get]
func (h *Handlers) ReportDebtor(c *gin.Context) {
	debtorID := c.Param("id")
	if _, err := uuid.Parse(debtorID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "debtor id must be a UUID")
		return
	}

	rep, err := h.reportSvc.Report(c.Request.Context(), userID(c), debtorID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDebtorNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "debtor not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, rep)
}

// EnrichDebtor godoc
// @ID          enrichDebtor
// @Summary     Label pending replies for a debtor
// @Description Runs the sentiment classifier over this debtor's unlabeled replies.
// @Description Failures on individual messages are skipped and reported in the summary.
// @Tags        Enrichment
// @Produce     json
//
// @Param       id  path  string  true  "Debtor ID (UUID)"  format(uuid)
//
// @Success     200  {object}  services.EnrichmentSummary
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse "No classifier configured"
// @Router      /debtors/{id}/enrich [post]
func (h *Handlers) EnrichDebtor(c *gin.Context) {
	debtorID := c.Param("id")
	if _, err := uuid.Parse(debtorID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "debtor id must be a UUID")
		return
	}
	h.enrich(c, debtorID)
}

// EnrichAll godoc
// @ID          enrichAll
// @Summary     Label pending replies across all debtors
// @Description Runs the sentiment classifier over every unlabeled reply in the store.
// @Tags        Enrichment
// @Produce     json
//
// @Success     200  {object}  services.EnrichmentSummary
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse "No classifier configured"
// @Router      /enrich [post]
func (h *Handlers) EnrichAll(c *gin.Context) {
	h.enrich(c, "")
}

// enrich runs the pending-reply pass and writes the summary. An empty debtorID
// spans the whole store.
func (h *Handlers) enrich(c *gin.Context, debtorID string) {
	sum, err := h.enrichSvc.EnrichPending(c.Request.Context(), debtorID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoClassifier):
			fail(c, http.StatusServiceUnavailable, ErrCodeEnrichFailed, "no sentiment classifier configured")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeEnrichFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, sum)
}
