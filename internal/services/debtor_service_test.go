package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-debt-backend/internal/domain"
	"github.com/tbourn/go-debt-backend/internal/repo"
)

// recordingRepo wraps the real repo functions and records create arguments.
type recordingRepo struct {
	created []domain.Debtor
	failOn  string // email that triggers a create failure
}

func (r *recordingRepo) CreateDebtor(ctx context.Context, db *gorm.DB, userID, name, phone, email string, debt int64) (*domain.Debtor, error) {
	if r.failOn != "" && email == r.failOn {
		return nil, errors.New("boom")
	}
	d, err := repo.CreateDebtor(ctx, db, userID, name, phone, email, debt)
	if err == nil {
		r.created = append(r.created, *d)
	}
	return d, err
}

func (r *recordingRepo) GetDebtor(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Debtor, error) {
	return repo.GetDebtor(ctx, db, id, userID)
}

func (r *recordingRepo) CountDebtors(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountDebtors(ctx, db, userID)
}

func (r *recordingRepo) ListDebtorsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Debtor, error) {
	return repo.ListDebtorsPage(ctx, db, userID, offset, limit)
}

func (r *recordingRepo) DeleteDebtor(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteDebtor(ctx, db, id, userID)
}

func TestUpload_NormalizesRows(t *testing.T) {
	db := newSvcDB(t)
	rr := &recordingRepo{}
	s := NewDebtorService(db, rr)

	rows := []DebtorUpload{
		{Name: "  john smith ", Phone: " +301234 ", Email: " John.Smith@Example.COM ", Debt: 500},
		{Name: "", Phone: "", Email: "b@c.d", Debt: 0},
	}
	n, err := s.Upload(context.Background(), "u1", rows)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if n != 2 {
		t.Fatalf("created = %d; want 2", n)
	}

	got := rr.created[0]
	if got.Email != "john.smith@example.com" {
		t.Fatalf("email not lowercased: %q", got.Email)
	}
	if got.Name != "John Smith" {
		t.Fatalf("name not title-cased: %q", got.Name)
	}
	if got.Phone != "+301234" {
		t.Fatalf("phone not trimmed: %q", got.Phone)
	}
}

func TestUpload_EmptySlice(t *testing.T) {
	db := newSvcDB(t)
	s := NewDebtorService(db, &recordingRepo{})
	if _, err := s.Upload(context.Background(), "u1", nil); !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("expected ErrEmptyUpload, got %v", err)
	}
}

func TestUpload_MissingEmailRollsBack(t *testing.T) {
	db := newSvcDB(t)
	s := NewDebtorService(db, &recordingRepo{})

	rows := []DebtorUpload{
		{Name: "Ok", Email: "ok@x.y"},
		{Name: "Bad", Email: "   "},
	}
	if _, err := s.Upload(context.Background(), "u1", rows); !errors.Is(err, ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}

	// All-or-nothing: the valid first row must not survive the rollback.
	var count int64
	if err := db.Model(&domain.Debtor{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}

func TestUpload_RepoFailureRollsBack(t *testing.T) {
	db := newSvcDB(t)
	s := NewDebtorService(db, &recordingRepo{failOn: "bad@x.y"})

	rows := []DebtorUpload{
		{Name: "Ok", Email: "ok@x.y"},
		{Name: "Bad", Email: "bad@x.y"},
	}
	if _, err := s.Upload(context.Background(), "u1", rows); err == nil {
		t.Fatal("expected error")
	}

	var count int64
	if err := db.Model(&domain.Debtor{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}

func TestListPage_DefaultsAndEmpty(t *testing.T) {
	db := newSvcDB(t)
	s := NewDebtorService(db, &recordingRepo{})

	items, total, err := s.ListPage(context.Background(), "u1", 0, -5)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d; want 0", total)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestListPage_ReturnsTotalAcrossPages(t *testing.T) {
	db := newSvcDB(t)
	s := NewDebtorService(db, &recordingRepo{})

	var rows []DebtorUpload
	for _, e := range []string{"a@x.y", "b@x.y", "c@x.y"} {
		rows = append(rows, DebtorUpload{Name: "N", Email: e})
	}
	if _, err := s.Upload(context.Background(), "u1", rows); err != nil {
		t.Fatalf("seed: %v", err)
	}

	items, total, err := s.ListPage(context.Background(), "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("page 1: total %d len %d; want 3 and 2", total, len(items))
	}

	items, total, err = s.ListPage(context.Background(), "u1", 2, 2)
	if err != nil {
		t.Fatalf("ListPage page 2: %v", err)
	}
	if total != 3 || len(items) != 1 {
		t.Fatalf("page 2: total %d len %d; want 3 and 1", total, len(items))
	}
}

func TestGetAndDelete_NotFoundMapping(t *testing.T) {
	db := newSvcDB(t)
	s := NewDebtorService(db, &recordingRepo{})

	if _, err := s.Get(context.Background(), "u1", "missing"); !errors.Is(err, ErrDebtorNotFound) {
		t.Fatalf("Get: expected ErrDebtorNotFound, got %v", err)
	}
	if err := s.Delete(context.Background(), "u1", "missing"); !errors.Is(err, ErrDebtorNotFound) {
		t.Fatalf("Delete: expected ErrDebtorNotFound, got %v", err)
	}

	seedDebtor(t, db, domain.Debtor{ID: "d1", Email: "a@b.c"})
	if err := s.Delete(context.Background(), "u1", "d1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(context.Background(), "u1", "d1"); !errors.Is(err, ErrDebtorNotFound) {
		t.Fatalf("Get after delete: expected ErrDebtorNotFound, got %v", err)
	}
}
