package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/telhawk-systems/telhawk-iris/internal/metrics"
	"github.com/telhawk-systems/telhawk-iris/internal/notify"
)

// Handler consumes rule-triggered events and dispatches them through the
// notifier registry. Messages are processed one at a time; each submission
// blocks until IRIS answers or the transport gives up.
type Handler struct {
	conn     *nats.Conn
	registry *notify.Registry
	subject  string
	queue    string
	log      *slog.Logger
	sub      *nats.Subscription
}

// NewHandler creates a new message handler.
func NewHandler(conn *nats.Conn, registry *notify.Registry, subject, queue string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		conn:     conn,
		registry: registry,
		subject:  subject,
		queue:    queue,
		log:      log,
	}
}

// Start begins listening for rule-triggered events.
func (h *Handler) Start(ctx context.Context) error {
	sub, err := h.conn.QueueSubscribe(h.subject, h.queue, func(msg *nats.Msg) {
		if err := h.processMessage(ctx, msg.Data); err != nil {
			metrics.DispatchErrors.Inc()
			h.log.Error("dispatch failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", h.subject, err)
	}
	h.sub = sub

	h.log.Info("NATS handler started", slog.String("subject", h.subject), slog.String("queue", h.queue))
	return nil
}

// Stop unsubscribes from the subject.
func (h *Handler) Stop() error {
	if h.sub == nil {
		return nil
	}
	if err := h.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe from %s: %w", h.subject, err)
	}
	h.sub = nil
	h.log.Info("NATS handler stopped")
	return nil
}

// processMessage decodes one rule-triggered event and invokes the matching
// rule's notifier.
func (h *Handler) processMessage(ctx context.Context, data []byte) error {
	var event RuleTriggeredEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal rule-triggered event: %w", err)
	}
	if event.RuleName == "" {
		return fmt.Errorf("rule-triggered event has no rule name")
	}

	notifier, ok := h.registry.Get(event.RuleName)
	if !ok {
		metrics.DispatchesTotal.WithLabelValues(event.RuleName, "unknown_rule").Inc()
		h.log.Warn("no alerter registered for rule", slog.String("rule", event.RuleName))
		return nil
	}

	if err := notifier.Send(ctx, event.Matches); err != nil {
		metrics.DispatchesTotal.WithLabelValues(event.RuleName, "error").Inc()
		return fmt.Errorf("rule %s: %w", event.RuleName, err)
	}

	metrics.DispatchesTotal.WithLabelValues(event.RuleName, "ok").Inc()
	return nil
}
