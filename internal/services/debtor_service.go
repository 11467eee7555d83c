// Package services – DebtorService
//
// This file implements the DebtorService, which manages the debtor book
// itself: bulk upload of parsed rows, paginated listing, retrieval, and
// removal. It normalizes contact details on the way in (emails lowercased,
// display names title-cased) because the correlator matches inbound identity
// claims against the stored email verbatim.
//
// Service-level errors (e.g., ErrDebtorNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-debt-backend/internal/domain"
)

// DebtorRepo defines the repository contract required by DebtorService.
type DebtorRepo interface {
	// CreateDebtor inserts a new debtor row for the given user.
	CreateDebtor(ctx context.Context, db *gorm.DB, userID, name, phone, email string, debt int64) (*domain.Debtor, error)

	// GetDebtor fetches a debtor by ID ensuring it belongs to the user.
	GetDebtor(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Debtor, error)

	// CountDebtors returns the total number of debtors for pagination.
	CountDebtors(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListDebtorsPage returns a page of debtors belonging to the user.
	ListDebtorsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Debtor, error)

	// DeleteDebtor hard-deletes a debtor and, via FK cascade, its messages.
	DeleteDebtor(ctx context.Context, db *gorm.DB, id, userID string) error
}

// DebtorUpload is one parsed row of an uploaded debtor book. File parsing
// itself happens upstream; the service receives structured rows.
type DebtorUpload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email" binding:"required"`
	Debt  int64  `json:"debt"`
}

// DebtorService provides debtor-book operations. It enforces row validation
// and normalization and ensures ownership constraints.
type DebtorService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the debtor repository used by this service.
	Repo DebtorRepo

	// NameLocale controls title casing of uploaded display names.
	NameLocale language.Tag
}

// NewDebtorService constructs a DebtorService with sane defaults.
func NewDebtorService(db *gorm.DB, r DebtorRepo) *DebtorService {
	return &DebtorService{DB: db, Repo: r, NameLocale: language.English}
}

// Upload inserts the given rows for userID in a single transaction and
// returns the number created. Rows are normalized first; a row without an
// email is rejected because inbound identity linking keys on it.
func (s *DebtorService) Upload(ctx context.Context, userID string, rows []DebtorUpload) (int, error) {
	if len(rows) == 0 {
		return 0, ErrEmptyUpload
	}
	caser := cases.Title(s.localeOrDefault())

	created := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			email := strings.ToLower(strings.TrimSpace(row.Email))
			if email == "" {
				return ErrInvalidRow
			}
			name := strings.TrimSpace(row.Name)
			if name != "" {
				name = caser.String(name)
			}
			if _, err := s.Repo.CreateDebtor(ctx, tx, userID, name, strings.TrimSpace(row.Phone), email, row.Debt); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// Get returns one debtor owned by userID.
func (s *DebtorService) Get(ctx context.Context, userID, debtorID string) (*domain.Debtor, error) {
	d, err := s.Repo.GetDebtor(ctx, s.DB, debtorID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDebtorNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListPage returns a page of debtors for a user. It applies defaults for
// invalid page/pageSize and returns the total count.
func (s *DebtorService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Debtor, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountDebtors(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Debtor{}, 0, nil
	}

	items, err := s.Repo.ListDebtorsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Delete removes a debtor and, through the FK cascade, its entire message log.
func (s *DebtorService) Delete(ctx context.Context, userID, debtorID string) error {
	err := s.Repo.DeleteDebtor(ctx, s.DB, debtorID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDebtorNotFound
	}
	return err
}

func (s *DebtorService) localeOrDefault() language.Tag {
	if s.NameLocale == language.Und {
		return language.English
	}
	return s.NameLocale
}
