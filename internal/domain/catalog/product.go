package catalog

import (
	"strings"

	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// ErrProductNotFound is returned when a catalog lookup misses
var ErrProductNotFound = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")

// Product is a catalog entry. Catalog maintenance is outside this system,
// products are read-only lookups.
type Product struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	RegularPrice valueobject.Money `json:"regular_price"`
	SalePrice    valueobject.Money `json:"sale_price"`
}

// NewProduct creates a product, validating the id, the name and the prices
func NewProduct(id, name, description string, regular, sale valueobject.Money) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return Product{}, shared.NewDomainError("INVALID_PRODUCT", "Product name cannot be empty")
	}
	if !regular.IsPositive() {
		return Product{}, shared.NewDomainError("INVALID_PRODUCT", "Regular price must be positive")
	}
	if sale.IsNegative() {
		return Product{}, shared.NewDomainError("INVALID_PRODUCT", "Sale price cannot be negative")
	}
	return Product{
		ID:           id,
		Name:         name,
		Description:  description,
		RegularPrice: regular,
		SalePrice:    sale,
	}, nil
}

// EffectivePrice is evaluated on every call so that a price change is seen
// by the next pricing of any cart holding the product.
func (p Product) EffectivePrice() valueobject.Money {
	return pricing.EffectivePrice(p.RegularPrice, p.SalePrice)
}

// OnSale returns true when the sale price is in effect
func (p Product) OnSale() bool {
	return !p.EffectivePrice().Equals(p.RegularPrice)
}
