package pricing

import (
	"strings"

	"github.com/cos/backend/internal/domain/shared"
)

// DeliveryMethod is how a placed order reaches the customer
type DeliveryMethod string

const (
	DeliveryMail   DeliveryMethod = "mail"
	DeliveryPickup DeliveryMethod = "pickup"
)

// ErrInvalidDelivery is returned for anything other than mail or pickup
var ErrInvalidDelivery = shared.NewDomainError("INVALID_DELIVERY", "Delivery method must be 'mail' or 'pickup'")

// IsValid returns true for the supported delivery methods
func (d DeliveryMethod) IsValid() bool {
	return d == DeliveryMail || d == DeliveryPickup
}

// String returns the method name
func (d DeliveryMethod) String() string {
	return string(d)
}

// ParseDeliveryMethod normalizes case and surrounding spaces before validating
func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	d := DeliveryMethod(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", ErrInvalidDelivery
	}
	return d, nil
}
