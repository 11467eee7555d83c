// Package notify implements the outbound chat transport. The concrete
// platform is the Telegram Bot API, spoken over plain HTTP; the service
// layer only sees the services.Transport contract, so the platform stays
// replaceable.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// defaultBaseURL is the Telegram Bot API root; the bot token is appended.
const defaultBaseURL = "https://api.telegram.org"

// TelegramClient sends messages through the Telegram Bot API.
type TelegramClient struct {
	token   string
	baseURL string
	hc      *http.Client
}

// Option customizes a TelegramClient.
type Option func(*TelegramClient)

// WithBaseURL overrides the API root. Used by tests to point at a local server.
func WithBaseURL(u string) Option {
	return func(c *TelegramClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *TelegramClient) { c.hc = hc }
}

// NewTelegramClient builds a client for the given bot token.
func NewTelegramClient(token string, opts ...Option) *TelegramClient {
	c := &TelegramClient{
		token:   strings.TrimSpace(token),
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send delivers text to the chat session and returns the platform message id
// as an opaque reference. Any non-2xx status or ok=false body is an error;
// nothing is retried here.
func (c *TelegramClient) Send(ctx context.Context, chatID, text string) (string, error) {
	if c.token == "" {
		return "", fmt.Errorf("telegram bot token not configured")
	}

	reqBody := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	b, _ := json.Marshal(reqBody)

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("telegram api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var parsed struct {
		OK     bool `json:"ok"`
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if !parsed.OK {
		return "", fmt.Errorf("telegram api rejected message: %s", parsed.Description)
	}
	return strconv.FormatInt(parsed.Result.MessageID, 10), nil
}
