package event

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/infrastructure/logger"
)

// AuditHandler writes every domain event to the structured log as JSON.
// Events carry no secrets; cards appear as their last four digits only.
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates an audit handler
func NewAuditHandler(l *zap.Logger) *AuditHandler {
	return &AuditHandler{logger: l.Named("audit")}
}

// EventTypes subscribes to all events
func (h *AuditHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.WithTraceContext(ctx, h.logger).Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}
