// Debtor HTTP handlers.
//
// This file exposes REST endpoints for debtor resources:
//   - POST   /debtors        (bulk upload)
//   - GET    /debtors        (list, paginated, ETag support)
//   - DELETE /debtors/{id}   (delete, cascades to message history)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-debt-backend/internal/domain"
	"github.com/tbourn/go-debt-backend/internal/repo"
	"github.com/tbourn/go-debt-backend/internal/services"
	"github.com/tbourn/go-debt-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// DebtorDirectory defines debtor lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DebtorDirectory interface {
	// Upload inserts a batch of debtors for userID and returns the count created.
	Upload(ctx context.Context, userID string, rows []services.DebtorUpload) (int, error)
	// Get returns a debtor owned by userID.
	Get(ctx context.Context, userID, debtorID string) (*domain.Debtor, error)
	// ListPage returns a page of debtors for a user and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Debtor, int64, error)
	// Delete removes a debtor owned by userID along with its message history.
	Delete(ctx context.Context, userID, debtorID string) error
}

// ReminderSender defines the outbound reminder operation.
type ReminderSender interface {
	// Send generates a reminder, delivers it, and records it atomically.
	Send(ctx context.Context, userID, debtorID string) (*services.SendResult, error)
}

// Reporter defines the engagement report operation.
type Reporter interface {
	// Report assembles the engagement report for a debtor owned by userID.
	Report(ctx context.Context, userID, debtorID string) (*services.Report, error)
}

// Enricher defines the sentiment backfill operation.
type Enricher interface {
	// EnrichPending labels unlabeled replies; empty debtorID spans all debtors.
	EnrichPending(ctx context.Context, debtorID string) (services.EnrichmentSummary, error)
}

// InboundRecorder defines webhook ingestion consumed by the webhook handler.
type InboundRecorder interface {
	// RecordInbound correlates one inbound chat message with a debtor.
	RecordInbound(ctx context.Context, chatID, text string, receivedAt time.Time) (*services.InboundResult, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for debtors, reminders, reports, and webhooks.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	debtorSvc  DebtorDirectory
	sendSvc    ReminderSender
	reportSvc  Reporter
	enrichSvc  Enricher
	inboundSvc InboundRecorder
	transport  services.Transport // optional, used for webhook courtesy replies
}

// New constructs and returns a Handlers instance bound to the given services.
// transport may be nil; webhook acknowledgements are then skipped.
func New(debtorSvc DebtorDirectory, sendSvc ReminderSender, reportSvc Reporter, enrichSvc Enricher, inboundSvc InboundRecorder, transport services.Transport) *Handlers {
	return &Handlers{
		debtorSvc:  debtorSvc,
		sendSvc:    sendSvc,
		reportSvc:  reportSvc,
		enrichSvc:  enrichSvc,
		inboundSvc: inboundSvc,
		transport:  transport,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// UploadDebtorsRequest is the JSON payload for bulk-uploading debtors.
type UploadDebtorsRequest struct {
	// Debtors holds the rows to insert. The batch is all-or-nothing.
	Debtors []services.DebtorUpload `json:"debtors" binding:"required,min=1"`
}

// UploadDebtorsResponse reports how many debtors were created.
type UploadDebtorsResponse struct {
	Created int `json:"created" example:"42"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListDebtorsResponse wraps a page of debtors and pagination information.
type ListDebtorsResponse struct {
	Debtors    []domain.Debtor `json:"debtors"`
	Pagination Pagination      `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

//
// Handlers
//

// UploadDebtors godoc
// @ID          uploadDebtors
// @Summary     Upload debtors
// @Description Inserts a batch of debtors for the current user in a single transaction.
// @Description Every row requires an email; the whole batch is rejected otherwise.
// @Tags        Debtors
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.UploadDebtorsRequest  true  "Debtor rows"
//
// @Success     201  {object}  handlers.UploadDebtorsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /debtors [post]
func (h *Handlers) UploadDebtors(c *gin.Context) {
	var req UploadDebtorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	n, err := h.debtorSvc.Upload(c.Request.Context(), userID(c), req.Debtors)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyUpload), errors.Is(err, services.ErrInvalidRow):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, UploadDebtorsResponse{Created: n})
}

// ListDebtors godoc
// @ID          listDebtors
// @Summary     List debtors (paginated)
// @Description Returns a page of the user's debtors. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Debtors
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListDebtorsResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /debtors [get]
func (h *Handlers) ListDebtors(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.debtorSvc.(*services.DebtorService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.DebtorsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"debtors:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	// Fetch page.
	items, total, err := h.debtorSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListDebtorsResponse{
		Debtors: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// DeleteDebtor godoc
// @ID          deleteDebtor
// @Summary     Delete a debtor
// @Description Removes a debtor owned by the current user; the message history is removed with it.
// @Tags        Debtors
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Debtor ID (UUID)"       format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Debtor not found"
// @Router      /debtors/{id} [delete]
func (h *Handlers) DeleteDebtor(c *gin.Context) {
	debtorID := c.Param("id")
	if _, err := uuid.Parse(debtorID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "debtor id must be a UUID")
		return
	}

	if err := h.debtorSvc.Delete(c.Request.Context(), userID(c), debtorID); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "debtor not found")
		return
	}

	noContent(c)
}
