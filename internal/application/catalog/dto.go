package catalog

import (
	"github.com/cos/backend/internal/domain/catalog"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// ProductResponse represents a product as listed to shoppers
type ProductResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	RegularPrice   valueobject.Money `json:"regular_price"`
	SalePrice      valueobject.Money `json:"sale_price"`
	EffectivePrice valueobject.Money `json:"effective_price"`
	OnSale         bool              `json:"on_sale"`
}

// ToProductResponse converts a domain product
func ToProductResponse(p catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		RegularPrice:   p.RegularPrice,
		SalePrice:      p.SalePrice,
		EffectivePrice: p.EffectivePrice(),
		OnSale:         p.OnSale(),
	}
}

// ToProductResponses converts a list of domain products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = ToProductResponse(p)
	}
	return out
}
