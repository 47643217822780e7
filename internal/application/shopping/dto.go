package shopping

import (
	"github.com/cos/backend/internal/domain/cart"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// CartLineView is one priced cart line
type CartLineView struct {
	ProductID    string            `json:"product_id"`
	ProductName  string            `json:"product_name"`
	RegularPrice valueobject.Money `json:"regular_price"`
	UnitPrice    valueobject.Money `json:"unit_price"`
	OnSale       bool              `json:"on_sale"`
	Quantity     int               `json:"quantity"`
	Amount       valueobject.Money `json:"amount"`
}

// CartView is the cart with a price quote for one delivery method
type CartView struct {
	CustomerID string                 `json:"customer_id"`
	Lines      []CartLineView         `json:"lines"`
	ItemCount  int                    `json:"item_count"`
	Delivery   pricing.DeliveryMethod `json:"delivery_method"`
	Quote      pricing.Quote          `json:"quote"`
}

func toLineViews(lines []cart.Line) []CartLineView {
	out := make([]CartLineView, 0, len(lines))
	for _, l := range lines {
		unit := l.Product.EffectivePrice()
		out = append(out, CartLineView{
			ProductID:    l.Product.ID,
			ProductName:  l.Product.Name,
			RegularPrice: l.Product.RegularPrice,
			UnitPrice:    unit,
			OnSale:       l.Product.OnSale(),
			Quantity:     l.Quantity,
			Amount:       unit.MultiplyByInt(int64(l.Quantity)),
		})
	}
	return out
}
