// Telegram webhook handler.
//
// This file exposes the inbound endpoint the chat provider calls:
//   - POST /webhook/telegram
//
// The provider delivers updates at-least-once, so the handler must stay cheap
// and must only signal failure when the event genuinely could not be stored.
// Any 2xx acknowledges the update; non-2xx makes Telegram redeliver it.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-debt-backend/internal/http/middleware"
	"github.com/tbourn/go-debt-backend/internal/notify"
	"github.com/tbourn/go-debt-backend/internal/services"
)

// WebhookResponse is the acknowledgement body for a processed update.
type WebhookResponse struct {
	// Outcome is one of "ignored", "linked", "replied", "unmatched".
	Outcome string `json:"outcome" example:"replied"`
}

// linkPrompt is the courtesy reply sent for /start and unmatched link attempts.
const linkPrompt = "Welcome! Reply with the email address on your account so we can link this chat."

// linkedAck confirms a successful identity link to the debtor.
const linkedAck = "Thanks, your account is linked. We'll keep you posted here."

// TelegramWebhook godoc
// @ID          telegramWebhook
// @Summary     Telegram update webhook
// @Description Receives Telegram updates. First message from an unknown chat is treated
// @Description as an email link attempt; messages from linked chats are recorded as replies.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       body  body  notify.Update  true  "Telegram update"
//
// @Success     200  {object}  handlers.WebhookResponse
// @Failure     400  {object}  handlers.ErrorResponse "Malformed update"
// @Failure     500  {object}  handlers.ErrorResponse "Storage failure (provider retries)"
// @Router      /webhook/telegram [post]
func (h *Handlers) TelegramWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	var upd notify.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed update")
		return
	}

	// Updates without a message (edits, channel posts) are acknowledged and dropped.
	msg := upd.Message
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		ok(c, http.StatusOK, WebhookResponse{Outcome: "ignored"})
		return
	}

	chatID := msg.ChatID()
	text := strings.TrimSpace(msg.Text)

	// Bot commands never carry identity or reply content.
	if strings.HasPrefix(text, "/") {
		if text == "/start" {
			h.courtesyReply(c, chatID, linkPrompt)
		}
		ok(c, http.StatusOK, WebhookResponse{Outcome: "ignored"})
		return
	}

	res, err := h.inboundSvc.RecordInbound(ctx, chatID, text, msg.ReceivedAt())
	if err != nil {
		// Non-2xx makes the provider redeliver the update.
		fail(c, http.StatusInternalServerError, ErrCodeWebhookFailed, err.Error())
		return
	}

	switch res.Outcome {
	case services.OutcomeLinked:
		h.courtesyReply(c, chatID, linkedAck)
	case services.OutcomeUnmatched:
		h.courtesyReply(c, chatID, linkPrompt)
	}

	ok(c, http.StatusOK, WebhookResponse{Outcome: string(res.Outcome)})
}

// courtesyReply sends a best-effort chat message back to the debtor. Delivery
// failures are logged and never affect the webhook acknowledgement.
func (h *Handlers) courtesyReply(c *gin.Context, chatID, text string) {
	if h.transport == nil {
		return
	}
	if _, err := h.transport.Send(c.Request.Context(), chatID, text); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Str("chat_id", chatID).Msg("courtesy reply failed")
	}
}
