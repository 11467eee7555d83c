package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-debt-backend/internal/domain"
	"github.com/tbourn/go-debt-backend/internal/repo"
	"github.com/tbourn/go-debt-backend/internal/services"
)

// ---------- test DB + repo shim ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:debtor_handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Enforce FKs and migrate schemas
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.Debtor{}, &domain.Message{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Minimal shim implementing services.DebtorRepo using the repo package (like router.go)
type testDebtorRepo struct{}

func (testDebtorRepo) CreateDebtor(ctx context.Context, db *gorm.DB, userID, name, phone, email string, debt int64) (*domain.Debtor, error) {
	return repo.CreateDebtor(ctx, db, userID, name, phone, email, debt)
}

func (testDebtorRepo) GetDebtor(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Debtor, error) {
	return repo.GetDebtor(ctx, db, id, userID)
}

func (testDebtorRepo) CountDebtors(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountDebtors(ctx, db, userID)
}

func (testDebtorRepo) ListDebtorsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Debtor, error) {
	return repo.ListDebtorsPage(ctx, db, userID, offset, limit)
}

func (testDebtorRepo) DeleteDebtor(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteDebtor(ctx, db, id, userID)
}

// ---------- tiny stubs for other services ----------

type stubSender struct {
	res *services.SendResult
	err error
}

func (s stubSender) Send(context.Context, string, string) (*services.SendResult, error) {
	return s.res, s.err
}

type stubReporter struct {
	rep *services.Report
	err error
}

func (s stubReporter) Report(context.Context, string, string) (*services.Report, error) {
	return s.rep, s.err
}

type stubEnricher struct {
	sum services.EnrichmentSummary
	err error
}

func (s stubEnricher) EnrichPending(context.Context, string) (services.EnrichmentSummary, error) {
	return s.sum, s.err
}

type stubInbound struct {
	res *services.InboundResult
	err error
}

func (s stubInbound) RecordInbound(context.Context, string, string, time.Time) (*services.InboundResult, error) {
	return s.res, s.err
}

// ---------- router wiring ----------

func newDebtorRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := New(
		services.NewDebtorService(db, testDebtorRepo{}),
		stubSender{},
		stubReporter{},
		stubEnricher{},
		stubInbound{},
		nil,
	)

	r := gin.New()
	r.POST("/debtors", h.UploadDebtors)
	r.GET("/debtors", h.ListDebtors)
	r.DELETE("/debtors/:id", h.DeleteDebtor)
	return r
}

func uploadBody(t *testing.T, rows []services.DebtorUpload) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(UploadDebtorsRequest{Debtors: rows})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewBuffer(b)
}

// ---------- tests ----------

func TestUploadDebtors_CreatedAndBadRequests(t *testing.T) {
	db := newHandlerDB(t)
	r := newDebtorRouter(t, db)

	t.Run("201 on valid batch", func(t *testing.T) {
		rows := []services.DebtorUpload{
			{Name: "ann adams", Phone: "+301", Email: "Ann@X.io", Debt: 1200},
			{Name: "bob", Email: "bob@x.io", Debt: 700},
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/debtors", uploadBody(t, rows))
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		var resp UploadDebtorsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Created != 2 {
			t.Fatalf("created = %d; want 2", resp.Created)
		}
	})

	t.Run("400 on malformed JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/debtors", bytes.NewBufferString("{nope"))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("400 on empty batch", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/debtors", bytes.NewBufferString(`{"debtors":[]}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("400 on row without email", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/debtors",
			bytes.NewBufferString(`{"debtors":[{"name":"x","email":"   "}]}`))
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Code != ErrCodeBadRequest {
			t.Fatalf("code = %q", body.Code)
		}
	})
}

func TestListDebtors_PaginationAndETag(t *testing.T) {
	db := newHandlerDB(t)
	r := newDebtorRouter(t, db)

	for i := 0; i < 3; i++ {
		if _, err := repo.CreateDebtor(context.Background(), db, "u1", "N", "", fmt.Sprintf("d%d@x.io", i), 100); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debtors?page=1&page_size=2", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	var resp ListDebtorsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Debtors) != 2 || resp.Pagination.Total != 3 || resp.Pagination.TotalPages != 2 || !resp.Pagination.HasNext {
		t.Fatalf("unexpected page: %+v", resp.Pagination)
	}

	// Conditional request with the fresh ETag yields 304.
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/debtors?page=1&page_size=2", nil)
	req2.Header.Set("X-User-ID", "u1")
	req2.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req2)
	if w2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w2.Code)
	}

	// A write invalidates the tag.
	if _, err := repo.CreateDebtor(context.Background(), db, "u1", "N", "", "late@x.io", 5); err != nil {
		t.Fatalf("seed: %v", err)
	}
	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodGet, "/debtors?page=1&page_size=2", nil)
	req3.Header.Set("X-User-ID", "u1")
	req3.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w3, req3)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 after write, got %d", w3.Code)
	}
}

func TestListDebtors_ClampsPageSize(t *testing.T) {
	db := newHandlerDB(t)
	r := newDebtorRouter(t, db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debtors?page=-2&page_size=9999", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp ListDebtorsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Page != 1 || resp.Pagination.PageSize != 100 {
		t.Fatalf("expected clamped pagination, got %+v", resp.Pagination)
	}
}

func TestDeleteDebtor_Statuses(t *testing.T) {
	db := newHandlerDB(t)
	r := newDebtorRouter(t, db)

	t.Run("400 on non-uuid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/debtors/not-a-uuid", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("404 on unknown id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/debtors/"+uuid.NewString(), nil)
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("204 on success", func(t *testing.T) {
		d, err := repo.CreateDebtor(context.Background(), db, "u1", "N", "", "del@x.io", 10)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/debtors/"+d.ID, nil)
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestUserIDResolution(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if got := userID(c); got != "demo-user" {
		t.Fatalf("fallback userID = %q", got)
	}
	c.Request.Header.Set("X-User-ID", "  header-user  ")
	if got := userID(c); got != "header-user" {
		t.Fatalf("header userID = %q", got)
	}
	c.Set("userID", "ctx-user")
	if got := userID(c); got != "ctx-user" {
		t.Fatalf("context userID should win, got %q", got)
	}
}
