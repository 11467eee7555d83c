package repo

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-debt-backend/internal/domain"
)

func newMsgRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("message_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Debtor{}, &domain.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.Create(&domain.Debtor{ID: "d1", UserID: "u", Name: "n", Email: "a@b.c"}).Error; err != nil {
		t.Fatalf("seed debtor: %v", err)
	}
	return db
}

func seedMessage(t *testing.T, db *gorm.DB, m domain.Message) {
	t.Helper()
	if m.DebtorID == "" {
		m.DebtorID = "d1"
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed message %s: %v", m.ID, err)
	}
}

func TestAppendSent_SetsDirectionAndTimestamps(t *testing.T) {
	db := newMsgRepoDB(t)

	start := time.Now().UTC().Add(-time.Minute)
	m, err := AppendSent(db, "d1", "pay up, please")
	if err != nil {
		t.Fatalf("AppendSent: %v", err)
	}
	if m.ID == "" || m.Direction != domain.DirectionSent || m.Body != "pay up, please" {
		t.Fatalf("unexpected message: %+v", m)
	}
	if m.ReplyToID != nil || m.Sentiment != nil {
		t.Fatalf("sent rows must not carry reply/sentiment fields: %+v", m)
	}
	if m.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset: %v", m.CreatedAt)
	}
}

func TestAppendReply_ReceivedAtAndZeroFallback(t *testing.T) {
	db := newMsgRepoDB(t)

	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	ref := "sent-1"
	m, err := AppendReply(db, "d1", "got it", &ref, at)
	if err != nil {
		t.Fatalf("AppendReply: %v", err)
	}
	if m.Direction != domain.DirectionReply || m.ReplyToID == nil || *m.ReplyToID != "sent-1" {
		t.Fatalf("unexpected reply: %+v", m)
	}
	if !m.CreatedAt.Equal(at) {
		t.Fatalf("CreatedAt = %v; want receipt time %v", m.CreatedAt, at)
	}

	// Zero receivedAt falls back to insert time.
	start := time.Now().UTC().Add(-time.Minute)
	m2, err := AppendReply(db, "d1", "later", nil, time.Time{})
	if err != nil {
		t.Fatalf("AppendReply zero: %v", err)
	}
	if m2.CreatedAt.Before(start) {
		t.Fatalf("zero receivedAt should stamp now, got %v", m2.CreatedAt)
	}
	if m2.ReplyToID != nil {
		t.Fatalf("nil back-reference must persist as NULL: %+v", m2)
	}
}

func TestLatestUnansweredSent(t *testing.T) {
	db := newMsgRepoDB(t)

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	seedMessage(t, db, domain.Message{ID: "s1", Direction: domain.DirectionSent, Body: "r1", CreatedAt: base})
	seedMessage(t, db, domain.Message{ID: "s2", Direction: domain.DirectionSent, Body: "r2", CreatedAt: base.Add(time.Hour)})
	seedMessage(t, db, domain.Message{ID: "s3", Direction: domain.DirectionSent, Body: "r3", CreatedAt: base.Add(2 * time.Hour)})

	// Newest unanswered first.
	got, err := LatestUnansweredSent(db, "d1")
	if err != nil {
		t.Fatalf("LatestUnansweredSent: %v", err)
	}
	if got.ID != "s3" {
		t.Fatalf("expected s3, got %s", got.ID)
	}

	// Answer s3; s2 becomes the candidate.
	ref := "s3"
	seedMessage(t, db, domain.Message{ID: "r1", Direction: domain.DirectionReply, Body: "ok", ReplyToID: &ref, CreatedAt: base.Add(3 * time.Hour)})
	got, err = LatestUnansweredSent(db, "d1")
	if err != nil {
		t.Fatalf("LatestUnansweredSent after answer: %v", err)
	}
	if got.ID != "s2" {
		t.Fatalf("expected s2 once s3 is answered, got %s", got.ID)
	}

	// Exhaust the rest; no candidate means ErrRecordNotFound.
	for i, id := range []string{"s2", "s1"} {
		ref := id
		seedMessage(t, db, domain.Message{
			ID: fmt.Sprintf("rx%d", i), Direction: domain.DirectionReply,
			Body: "ok", ReplyToID: &ref, CreatedAt: base.Add(time.Duration(4+i) * time.Hour),
		})
	}
	if _, err := LatestUnansweredSent(db, "d1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound when everything is answered, got %v", err)
	}
}

func TestListMessages_DeterministicOrder(t *testing.T) {
	db := newMsgRepoDB(t)

	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	// Same CreatedAt: ID breaks the tie.
	seedMessage(t, db, domain.Message{ID: "b", Direction: domain.DirectionSent, Body: "x", CreatedAt: at})
	seedMessage(t, db, domain.Message{ID: "a", Direction: domain.DirectionSent, Body: "x", CreatedAt: at})
	seedMessage(t, db, domain.Message{ID: "c", Direction: domain.DirectionReply, Body: "x", CreatedAt: at.Add(time.Second)})

	list, err := ListMessages(db, "d1")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(list) != 3 || list[0].ID != "a" || list[1].ID != "b" || list[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestListUnlabeledReplies_PredicateAndScope(t *testing.T) {
	db := newMsgRepoDB(t)
	if err := db.Create(&domain.Debtor{ID: "d2", UserID: "u", Name: "n", Email: "z@b.c"}).Error; err != nil {
		t.Fatalf("seed d2: %v", err)
	}

	pos := domain.SentimentPositive
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	seedMessage(t, db, domain.Message{ID: "m1", Direction: domain.DirectionReply, Body: "unlabeled", CreatedAt: at})
	seedMessage(t, db, domain.Message{ID: "m2", Direction: domain.DirectionReply, Body: "labeled", Sentiment: &pos, CreatedAt: at})
	seedMessage(t, db, domain.Message{ID: "m3", Direction: domain.DirectionReply, Body: "", CreatedAt: at})
	seedMessage(t, db, domain.Message{ID: "m4", Direction: domain.DirectionSent, Body: "outbound", CreatedAt: at})
	seedMessage(t, db, domain.Message{ID: "m5", DebtorID: "d2", Direction: domain.DirectionReply, Body: "other debtor", CreatedAt: at})

	got, err := ListUnlabeledReplies(db, "d1")
	if err != nil {
		t.Fatalf("ListUnlabeledReplies: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("expected only m1, got %+v", got)
	}

	// Empty debtorID spans all debtors.
	all, err := ListUnlabeledReplies(db, "")
	if err != nil {
		t.Fatalf("ListUnlabeledReplies all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected m1 and m5, got %+v", all)
	}
}

func TestSetSentiment_WriteOnce(t *testing.T) {
	db := newMsgRepoDB(t)

	seedMessage(t, db, domain.Message{ID: "m1", Direction: domain.DirectionReply, Body: "hello"})
	seedMessage(t, db, domain.Message{ID: "s1", Direction: domain.DirectionSent, Body: "outbound"})

	if err := SetSentiment(db, "m1", domain.SentimentNegative); err != nil {
		t.Fatalf("SetSentiment: %v", err)
	}
	var got domain.Message
	if err := db.First(&got, "id = ?", "m1").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Sentiment == nil || *got.Sentiment != domain.SentimentNegative {
		t.Fatalf("label not persisted: %+v", got)
	}

	// A second write must not overwrite.
	if err := SetSentiment(db, "m1", domain.SentimentPositive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on relabel, got %v", err)
	}
	// Outbound rows are never labeled.
	if err := SetSentiment(db, "s1", domain.SentimentPositive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for sent row, got %v", err)
	}
}

func TestCountMessages(t *testing.T) {
	db := newMsgRepoDB(t)

	seedMessage(t, db, domain.Message{ID: "m1", Direction: domain.DirectionSent, Body: "x"})
	seedMessage(t, db, domain.Message{ID: "m2", Direction: domain.DirectionReply, Body: "y"})

	total, err := CountMessages(db, "d1")
	if err != nil || total != 2 {
		t.Fatalf("CountMessages = %d, %v; want 2, nil", total, err)
	}
}
