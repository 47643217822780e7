package identity

import "github.com/cos/backend/internal/domain/shared"

// Customer domain event types
const (
	EventTypeCustomerRegistered = "CustomerRegistered"
	EventTypeCustomerLocked     = "CustomerLocked"
)

// CustomerRegisteredEvent is published when an account is opened
type CustomerRegisteredEvent struct {
	shared.BaseDomainEvent
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
}

// NewCustomerRegisteredEvent creates a new CustomerRegisteredEvent
func NewCustomerRegisteredEvent(c *Customer) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerRegistered, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		Name:            c.Name,
	}
}

// CustomerLockedEvent is published when failed logins lock an account
type CustomerLockedEvent struct {
	shared.BaseDomainEvent
	CustomerID   string `json:"customer_id"`
	FailedLogins int    `json:"failed_logins"`
}

// NewCustomerLockedEvent creates a new CustomerLockedEvent
func NewCustomerLockedEvent(c *Customer) *CustomerLockedEvent {
	return &CustomerLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerLocked, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		FailedLogins:    c.FailedLogins,
	}
}
