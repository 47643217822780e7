package payment

import (
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// EventTypePaymentDeclined is published for every declined authorization attempt
const EventTypePaymentDeclined = "PaymentDeclined"

// PaymentDeclinedEvent records a declined attempt during checkout
type PaymentDeclinedEvent struct {
	shared.BaseDomainEvent
	CustomerID string            `json:"customer_id"`
	Attempt    int               `json:"attempt"`
	Reason     DeclineReason     `json:"reason"`
	Amount     valueobject.Money `json:"amount"`
	CardLast4  string            `json:"card_last4"`
}

// NewPaymentDeclinedEvent creates a PaymentDeclinedEvent
func NewPaymentDeclinedEvent(customerID string, attempt int, reason DeclineReason, amount valueobject.Money, last4 string) *PaymentDeclinedEvent {
	return &PaymentDeclinedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentDeclined, "Payment", customerID),
		CustomerID:      customerID,
		Attempt:         attempt,
		Reason:          reason,
		Amount:          amount,
		CardLast4:       last4,
	}
}
