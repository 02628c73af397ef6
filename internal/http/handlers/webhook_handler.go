// Webhook HTTP handler.
//
// This file exposes the single platform-facing endpoint:
//   - POST /webhook
//
// The response contract is fixed by the messaging platform's retry
// behavior: only ever 200 "OK" (including internal no-op branches),
// 401 "Unauthorized" (verification failure), or 500 "Error" (unhandled
// failure), all as plain text. Anything else risks the platform disabling
// or hammering the webhook.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiptophouse/diamond-webhook/internal/http/middleware"
	"github.com/tiptophouse/diamond-webhook/internal/services"
	"github.com/tiptophouse/diamond-webhook/internal/telegram"
	"github.com/tiptophouse/diamond-webhook/internal/verify"
)

// RequestVerifier validates the raw inbound request before any processing.
type RequestVerifier interface {
	Check(r *http.Request) verify.Result
}

// UpdateProcessor runs the orchestration pipeline for one update.
type UpdateProcessor interface {
	Process(ctx context.Context, update telegram.Update) (services.Outcome, error)
}

// WebhookHandler binds verification and orchestration to the HTTP entry
// point.
type WebhookHandler struct {
	verifier  RequestVerifier
	processor UpdateProcessor
}

// NewWebhook constructs a WebhookHandler.
func NewWebhook(verifier RequestVerifier, processor UpdateProcessor) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, processor: processor}
}

// Handle processes one inbound platform call: Verify → decode envelope →
// orchestrate → plain-text status. A local recover enforces the plain-text
// 500 contract even on panics, before the JSON recovery middleware would
// see them.
func (h *WebhookHandler) Handle(c *gin.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			lg := middleware.LoggerFrom(c)
			lg.Error().Interface("panic", rec).Msg("webhook processing panicked")
			if !c.Writer.Written() {
				c.String(http.StatusInternalServerError, "Error")
			}
			c.Abort()
		}
	}()

	if res := h.verifier.Check(c.Request); !res.Valid {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
		// An unparseable body is treated as absence of actionable content,
		// not an error: the platform must not retry it.
		c.String(http.StatusOK, "OK")
		return
	}

	outcome, err := h.processor.Process(c.Request.Context(), update)
	if err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Int64("update_id", update.UpdateID).Msg("webhook processing failed")
		c.String(http.StatusInternalServerError, "Error")
		return
	}

	lg := middleware.LoggerFrom(c)
	lg.Debug().Int64("update_id", update.UpdateID).Str("outcome", string(outcome)).Msg("webhook processed")
	c.String(http.StatusOK, "OK")
}
