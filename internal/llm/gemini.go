// Package llm wraps the Gemini API behind the two collaborator contracts the
// engine consumes: reminder-text generation and sentiment classification.
// Cross-cutting concerns (timeouts, isolation of per-message failures) are
// the caller's business; this package only shapes prompts and parses output.
package llm

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"github.com/tbourn/go-debt-backend/internal/domain"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// Gemini implements services.Generator and services.Classifier.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini constructs a client. The API key is read from the environment by
// the genai SDK (GEMINI_API_KEY / GOOGLE_API_KEY).
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{cli: cli, model: model}, nil
}

// Reminder generates a polite repayment reminder for the debtor.
func (g *Gemini) Reminder(ctx context.Context, name string, amount int64) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a polite and professional reminder message to %s, letting them know that "+
			"they owe %d. The tone should be friendly but clear, and encourage timely repayment. "+
			"Reply with the message text only.",
		name, amount,
	)
	out, err := g.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return out, nil
}

// Classify labels one reply body as positive, neutral, or negative.
func (g *Gemini) Classify(ctx context.Context, text string) (domain.Sentiment, error) {
	prompt := fmt.Sprintf(
		"Classify the sentiment of the following debtor reply as exactly one word: "+
			"positive, neutral, or negative.\n\nReply: %q",
		text,
	)
	out, err := g.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return ParseSentiment(out)
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in model response")
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}

// ParseSentiment maps free-form model output onto the closed label set.
// Matching is case-insensitive and tolerates surrounding punctuation; any
// output not containing exactly one known label is an error.
func ParseSentiment(out string) (domain.Sentiment, error) {
	s := strings.ToLower(strings.TrimSpace(out))
	s = strings.Trim(s, ".!\"' \t\n")

	var found []domain.Sentiment
	for _, label := range []domain.Sentiment{domain.SentimentPositive, domain.SentimentNeutral, domain.SentimentNegative} {
		if strings.Contains(s, string(label)) {
			found = append(found, label)
		}
	}
	if len(found) != 1 {
		return "", fmt.Errorf("unrecognized sentiment label %q", out)
	}
	return found[0], nil
}
