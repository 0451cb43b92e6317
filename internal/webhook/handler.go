// Package webhook is the inbound chat adapter. It owns transport concerns
// the conversation engine never sees: payload validation, deduplication of
// gateway redeliveries, per-sender rate limiting and panic containment.
package webhook

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"shrimpquote_backend/internal/conversation"
	"shrimpquote_backend/platform/httpkit"
	"shrimpquote_backend/platform/logger"
	"shrimpquote_backend/platform/phone"
	"shrimpquote_backend/platform/sanitize"
	"shrimpquote_backend/platform/validator"
)

const (
	statusProcessed   = "processed"
	statusDuplicate   = "duplicate"
	statusIgnored     = "ignored"
	statusRateLimited = "rate_limited"

	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
)

// Responder delivers the reply back to the sender.
type Responder interface {
	SendMessage(ctx context.Context, phone, text string) error
}

// InboundMessage is the gateway webhook payload. Only the fields the
// conversation needs are bound; everything else in the event is ignored.
type InboundMessage struct {
	SenderID string `json:"sender_id" validate:"required,max=64"`
	Pushname string `json:"pushname" validate:"max=100"`
	Message  struct {
		ID   string `json:"id" validate:"max=128"`
		Text string `json:"text" validate:"max=4096"`
	} `json:"message"`
}

// Handler handles inbound webhook HTTP requests.
type Handler struct {
	engine    *conversation.Engine
	responder Responder
	limiter   *httpkit.KeyedRateLimiter
	dedup     *Deduper
	val       *validator.Validator
	log       *logger.Logger
}

func NewHandler(engine *conversation.Engine, responder Responder, limiter *httpkit.KeyedRateLimiter, dedup *Deduper, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{
		engine:    engine,
		responder: responder,
		limiter:   limiter,
		dedup:     dedup,
		val:       val,
		log:       log,
	}
}

// HandleInbound processes one inbound chat message.
// POST /api/v1/webhook/whatsapp
//
// The gateway retries on non-2xx responses, so every accepted payload is
// answered 200 even when processing fails; failures surface to the user as
// an apology message, never as a transport error that would trigger a
// redelivery loop.
func (h *Handler) HandleInbound(c *gin.Context) {
	var payload InboundMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	sender := phone.SessionKey(payload.SenderID)
	text := sanitize.Message(payload.Message.Text)
	if text == "" {
		c.JSON(http.StatusOK, gin.H{"status": statusIgnored})
		return
	}

	ctx := c.Request.Context()

	if h.dedup.Seen(ctx, payload.Message.ID) {
		c.JSON(http.StatusOK, gin.H{"status": statusDuplicate})
		return
	}

	if !h.limiter.Allow(sender) {
		h.log.RateLimitExceeded(sender, c.Request.URL.Path)
		c.JSON(http.StatusOK, gin.H{"status": statusRateLimited})
		return
	}

	reply := h.converse(ctx, sender, text)
	if err := h.responder.SendMessage(ctx, sender, reply); err != nil {
		h.log.CollaboratorError("whatsapp", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": statusProcessed})
}

// converse runs the conversation engine with panic containment. A panic or
// unexpected error yields an apology; the engine saves nothing on those
// paths, so the user's session state survives for the next attempt.
func (h *Handler) converse(ctx context.Context, sender, text string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("panic handling inbound message", "sender", sender, "panic", r)
			reply = apologyMessage
		}
	}()

	reply, err := h.engine.HandleMessage(ctx, sender, text)
	if err != nil {
		h.log.Error("conversation error", "sender", sender, "error", err.Error())
		return apologyMessage
	}
	return reply
}

const apologyMessage = "⚠️ Ocurrió un error procesando tu mensaje. Por favor intenta nuevamente.\n⚠️ An error occurred while processing your message. Please try again."
