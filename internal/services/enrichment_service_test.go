package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-debt-backend/internal/domain"
)

// fakeClassifier labels by keyword and can be told to fail on specific bodies.
type fakeClassifier struct {
	failOn map[string]bool
	label  func(text string) domain.Sentiment
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (domain.Sentiment, error) {
	f.calls++
	if f.failOn[text] {
		return "", errors.New("model unavailable")
	}
	if f.label != nil {
		return f.label(text), nil
	}
	return domain.SentimentNeutral, nil
}

func seedReply(t *testing.T, db *gorm.DB, id, debtorID, body string) {
	t.Helper()
	m := domain.Message{
		ID:        id,
		DebtorID:  debtorID,
		Direction: domain.DirectionReply,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed reply %s: %v", id, err)
	}
}

func TestEnrichPending_NoClassifier(t *testing.T) {
	db := newSvcDB(t)
	s := &EnrichmentService{DB: db}
	if _, err := s.EnrichPending(context.Background(), ""); !errors.Is(err, ErrNoClassifier) {
		t.Fatalf("expected ErrNoClassifier, got %v", err)
	}
}

func TestEnrichPending_PartialFailure(t *testing.T) {
	db := newSvcDB(t)
	seedDebtor(t, db, domain.Debtor{ID: "d1", Email: "a@b.c"})

	for i := 1; i <= 5; i++ {
		seedReply(t, db, fmt.Sprintf("r%d", i), "d1", fmt.Sprintf("reply %d", i))
	}

	fc := &fakeClassifier{
		failOn: map[string]bool{"reply 3": true},
		label:  func(string) domain.Sentiment { return domain.SentimentPositive },
	}
	s := &EnrichmentService{DB: db, Classifier: fc}

	sum, err := s.EnrichPending(context.Background(), "d1")
	if err != nil {
		t.Fatalf("EnrichPending: %v", err)
	}
	if sum.Attempted != 5 || sum.Succeeded != 4 {
		t.Fatalf("summary = %+v; want {Attempted:5 Succeeded:4}", sum)
	}

	// The failed reply stays unlabeled and is picked up by a later pass.
	var unlabeled int64
	if err := db.Model(&domain.Message{}).Where("sentiment IS NULL").Count(&unlabeled).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if unlabeled != 1 {
		t.Fatalf("expected exactly 1 unlabeled reply, got %d", unlabeled)
	}

	fc.failOn = nil
	sum2, err := s.EnrichPending(context.Background(), "d1")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if sum2.Attempted != 1 || sum2.Succeeded != 1 {
		t.Fatalf("second pass summary = %+v; want {Attempted:1 Succeeded:1}", sum2)
	}
}

func TestEnrichPending_InvalidLabelNotPersisted(t *testing.T) {
	db := newSvcDB(t)
	seedDebtor(t, db, domain.Debtor{ID: "d1", Email: "a@b.c"})
	seedReply(t, db, "r1", "d1", "whatever")

	fc := &fakeClassifier{label: func(string) domain.Sentiment { return "ecstatic" }}
	s := &EnrichmentService{DB: db, Classifier: fc}

	sum, err := s.EnrichPending(context.Background(), "d1")
	if err != nil {
		t.Fatalf("EnrichPending: %v", err)
	}
	if sum.Attempted != 1 || sum.Succeeded != 0 {
		t.Fatalf("summary = %+v; want {Attempted:1 Succeeded:0}", sum)
	}

	var m domain.Message
	if err := db.First(&m, "id = ?", "r1").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m.Sentiment != nil {
		t.Fatalf("unknown label must not be persisted, got %v", *m.Sentiment)
	}
}

func TestEnrichPending_ScopesToDebtor(t *testing.T) {
	db := newSvcDB(t)
	seedDebtor(t, db, domain.Debtor{ID: "d1", Email: "a@b.c"})
	seedDebtor(t, db, domain.Debtor{ID: "d2", Email: "x@y.z"})
	seedReply(t, db, "r1", "d1", "mine")
	seedReply(t, db, "r2", "d2", "other")

	fc := &fakeClassifier{}
	s := &EnrichmentService{DB: db, Classifier: fc}

	sum, err := s.EnrichPending(context.Background(), "d1")
	if err != nil {
		t.Fatalf("EnrichPending: %v", err)
	}
	if sum.Attempted != 1 {
		t.Fatalf("expected scoped pass over 1 reply, got %+v", sum)
	}

	// Empty debtor ID spans everything still pending.
	sumAll, err := s.EnrichPending(context.Background(), "")
	if err != nil {
		t.Fatalf("EnrichPending all: %v", err)
	}
	if sumAll.Attempted != 1 || sumAll.Succeeded != 1 {
		t.Fatalf("global pass summary = %+v; want {Attempted:1 Succeeded:1}", sumAll)
	}
}
