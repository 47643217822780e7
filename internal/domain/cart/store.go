package cart

// Store keeps one cart per customer. The returned cart is shared; callers
// hold the customer's key lock while reading or mutating it.
type Store interface {
	// Cart returns the customer's cart, creating an empty one on first use
	Cart(customerID string) *Cart
}
