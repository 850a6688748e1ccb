// Package handlers contains the HTTP handlers registered on the server.
package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gomashio/gomashio/internal/github"
)

// receivedMessage is the fixed acknowledgement body GitHub sees for
// every delivery, successful or not. A non-200 would trigger GitHub's
// retry escalation, which this relay deliberately avoids.
const receivedMessage = "gomashio received"

// Pipeline processes one decoded delivery end to end.
type Pipeline interface {
	Handle(ctx context.Context, event github.Event)
}

// WebhookHandler receives GitHub webhook deliveries.
type WebhookHandler struct {
	pipeline Pipeline
	logger   *slog.Logger
}

// NewWebhookHandler creates the webhook receiver.
func NewWebhookHandler(log *slog.Logger, pipeline Pipeline) *WebhookHandler {
	return &WebhookHandler{
		pipeline: pipeline,
		logger:   log.With(slog.String("handler", "webhook")),
	}
}

// Register mounts POST /webhook on the Echo instance.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook", h.Receive)
}

// Receive decodes the delivery and runs the pipeline. The response is
// always 200 with the fixed acknowledgement body; failures are logged
// and swallowed.
func (h *WebhookHandler) Receive(c echo.Context) error {
	req := c.Request()
	eventType := req.Header.Get(github.EventHeader)
	delivery := req.Header.Get(github.DeliveryHeader)
	log := h.logger.With(slog.String("event", eventType), slog.String("delivery", delivery))

	body, err := io.ReadAll(req.Body)
	if err != nil {
		log.Error("read body failed", slog.Any("error", err))
		return h.ack(c)
	}

	payload, err := github.DecodePayload(req.Header.Get(echo.HeaderContentType), body)
	if err != nil {
		log.Error("decode payload failed", slog.Any("error", err))
		return h.ack(c)
	}

	h.pipeline.Handle(req.Context(), github.Event{
		Type:     eventType,
		Delivery: delivery,
		Payload:  payload,
	})
	return h.ack(c)
}

func (h *WebhookHandler) ack(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": receivedMessage,
	})
}
