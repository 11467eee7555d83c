// Package services – external collaborator contracts.
//
// The engine treats the chat platform, the text generator, and the sentiment
// classifier as opaque request/response collaborators. Services accept these
// narrow interfaces so tests can substitute fakes and so the concrete clients
// (internal/notify, internal/llm) stay swappable.
package services

import (
	"context"

	"github.com/tbourn/go-debt-backend/internal/domain"
)

// Transport delivers one outbound text to an external chat session and
// returns the platform's message reference. A failure means nothing was
// delivered; callers must not record any state for the attempt.
type Transport interface {
	Send(ctx context.Context, chatID, text string) (ref string, err error)
}

// Generator produces the reminder text for a debtor. Implementations are
// expected to honor ctx deadlines; the outbound service applies a bounded
// timeout per call.
type Generator interface {
	Reminder(ctx context.Context, name string, amount int64) (string, error)
}

// Classifier assigns a sentiment label to one reply body. Implementations
// must return one of the closed domain.Sentiment values or an error.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Sentiment, error)
}
