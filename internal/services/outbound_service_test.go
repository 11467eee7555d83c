package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-debt-backend/internal/domain"
)

// ----- Fakes -----

type fakeTransport struct {
	ref string
	err error

	calls    int
	gotChat  string
	gotText  string
}

func (f *fakeTransport) Send(ctx context.Context, chatID, text string) (string, error) {
	f.calls++
	f.gotChat, f.gotText = chatID, text
	return f.ref, f.err
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Reminder(ctx context.Context, name string, amount int64) (string, error) {
	return f.text, f.err
}

// ----- Tests -----

func TestSend_NoTransport(t *testing.T) {
	s := &OutboundService{DB: nil}
	if _, err := s.Send(context.Background(), "u1", "d1"); !errors.Is(err, ErrNoTransport) {
		t.Fatalf("expected ErrNoTransport, got %v", err)
	}
}

func TestSend_DebtorNotFound(t *testing.T) {
	db := newSvcDB(t)
	s := &OutboundService{DB: db, Transport: &fakeTransport{ref: "1"}}

	if _, err := s.Send(context.Background(), "u1", "missing"); !errors.Is(err, ErrDebtorNotFound) {
		t.Fatalf("expected ErrDebtorNotFound, got %v", err)
	}

	// Ownership counts as existence: another user's debtor is not found.
	chat := "42"
	seedDebtor(t, db, domain.Debtor{ID: "d1", UserID: "owner", Email: "a@b.c", ChatID: &chat})
	if _, err := s.Send(context.Background(), "someone-else", "d1"); !errors.Is(err, ErrDebtorNotFound) {
		t.Fatalf("expected ErrDebtorNotFound for foreign debtor, got %v", err)
	}
}

func TestSend_ChannelNotLinked(t *testing.T) {
	db := newSvcDB(t)
	s := &OutboundService{DB: db, Transport: &fakeTransport{ref: "1"}}
	seedDebtor(t, db, domain.Debtor{ID: "d1", Email: "a@b.c"})

	if _, err := s.Send(context.Background(), "u1", "d1"); !errors.Is(err, ErrChannelNotLinked) {
		t.Fatalf("expected ErrChannelNotLinked, got %v", err)
	}
}

func TestSend_TransportFailureLeavesNoState(t *testing.T) {
	db := newSvcDB(t)
	boom := errors.New("network down")
	tp := &fakeTransport{err: boom}
	s := &OutboundService{DB: db, Transport: tp}
	chat := "42"
	seedDebtor(t, db, domain.Debtor{ID: "d1", Email: "a@b.c", ChatID: &chat})

	if _, err := s.Send(context.Background(), "u1", "d1"); !errors.Is(err, boom) {
		t.Fatalf("expected transport error to propagate, got %v", err)
	}

	// Nothing recorded, counter untouched.
	var msgs int64
	if err := db.Model(&domain.Message{}).Count(&msgs).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if msgs != 0 {
		t.Fatalf("no message rows expected after delivery failure, got %d", msgs)
	}
	var got domain.Debtor
	if err := db.First(&got, "id = ?", "d1").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TotalMessagesSent != 0 {
		t.Fatalf("TotalMessagesSent = %d; want 0", got.TotalMessagesSent)
	}
}

func TestSend_Success_TemplateWhenNoGenerator(t *testing.T) {
	db := newSvcDB(t)
	tp := &fakeTransport{ref: "1048"}
	s := &OutboundService{DB: db, Transport: tp}
	chat := "42"
	seedDebtor(t, db, domain.Debtor{ID: "d1", Name: "Ann", Email: "a@b.c", DebtAmount: 1200, ChatID: &chat})

	res, err := s.Send(context.Background(), "u1", "d1")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.TransportRef != "1048" {
		t.Fatalf("TransportRef = %q; want 1048", res.TransportRef)
	}
	if tp.gotChat != "42" {
		t.Fatalf("sent to chat %q; want 42", tp.gotChat)
	}
	if !strings.Contains(tp.gotText, "Ann") || !strings.Contains(tp.gotText, "1200") {
		t.Fatalf("template reminder must mention name and amount, got %q", tp.gotText)
	}

	// Log append and counter move together.
	if res.Message == nil || res.Message.Direction != domain.DirectionSent || res.Message.Body != tp.gotText {
		t.Fatalf("unexpected recorded message: %+v", res.Message)
	}
	var got domain.Debtor
	if err := db.First(&got, "id = ?", "d1").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TotalMessagesSent != 1 {
		t.Fatalf("TotalMessagesSent = %d; want 1", got.TotalMessagesSent)
	}
}

func TestSend_UsesGeneratorText(t *testing.T) {
	db := newSvcDB(t)
	tp := &fakeTransport{ref: "7"}
	s := &OutboundService{
		DB:              db,
		Transport:       tp,
		Generator:       &fakeGenerator{text: "Dear Ann, please settle 1200 by Friday."},
		GenerateTimeout: time.Second,
	}
	chat := "42"
	seedDebtor(t, db, domain.Debtor{ID: "d1", Name: "Ann", Email: "a@b.c", DebtAmount: 1200, ChatID: &chat})

	res, err := s.Send(context.Background(), "u1", "d1")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Message.Body != "Dear Ann, please settle 1200 by Friday." {
		t.Fatalf("generator text not used: %q", res.Message.Body)
	}
}

func TestSend_GeneratorFailureAbortsBeforeDelivery(t *testing.T) {
	db := newSvcDB(t)
	boom := errors.New("model unavailable")
	tp := &fakeTransport{ref: "7"}
	s := &OutboundService{DB: db, Transport: tp, Generator: &fakeGenerator{err: boom}}
	chat := "42"
	seedDebtor(t, db, domain.Debtor{ID: "d1", Email: "a@b.c", ChatID: &chat})

	if _, err := s.Send(context.Background(), "u1", "d1"); !errors.Is(err, boom) {
		t.Fatalf("expected generator error, got %v", err)
	}
	if tp.calls != 0 {
		t.Fatalf("transport must not be called when generation fails, got %d calls", tp.calls)
	}
}

func TestDefaultReminder_BlankName(t *testing.T) {
	got := defaultReminder("", 50)
	if !strings.Contains(got, "Hello there") {
		t.Fatalf("blank name should fall back to a generic greeting, got %q", got)
	}
}
