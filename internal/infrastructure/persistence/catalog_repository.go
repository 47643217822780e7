package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/cos/backend/internal/domain/catalog"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// MemoryProductRepository serves the read-only product list
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

// NewMemoryProductRepository creates a repository holding the given products
func NewMemoryProductRepository(products ...catalog.Product) *MemoryProductRepository {
	r := &MemoryProductRepository{products: make(map[string]catalog.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

// DefaultProducts is the store's launch assortment. A zero sale price means
// the item is not on sale.
func DefaultProducts() []catalog.Product {
	seed := []struct {
		id, name, desc string
		regular, sale  string
	}{
		{"P1", "Laptop", "High-performance laptop", "999.99", "899.99"},
		{"P2", "Phone", "Latest smartphone", "699.99", "649.99"},
		{"P3", "Headphones", "Noise-cancelling", "199.99", "0"},
		{"P4", "Tablet", "10-inch display with stylus", "449.99", "399.99"},
		{"P5", "Smart Watch", "Fitness tracking and notifications", "299.99", "249.99"},
		{"P6", "Wireless Earbuds", "True wireless with charging case", "149.99", "0"},
		{"P7", "Gaming Console", "Next-gen gaming system", "499.99", "449.99"},
	}
	out := make([]catalog.Product, 0, len(seed))
	for _, s := range seed {
		p, err := catalog.NewProduct(s.id, s.name, s.desc, valueobject.MustMoney(s.regular), valueobject.MustMoney(s.sale))
		if err != nil {
			panic(err)
		}
		out = append(out, p)
	}
	return out
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id string) (catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound.WithDetail("product_id", id)
	}
	return p, nil
}

// FindAll returns every product ordered by id
func (r *MemoryProductRepository) FindAll(_ context.Context) ([]catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Put inserts or replaces a product; used to apply price changes
func (r *MemoryProductRepository) Put(p catalog.Product) {
	r.mu.Lock()
	r.products[p.ID] = p
	r.mu.Unlock()
}

var _ catalog.ProductRepository = (*MemoryProductRepository)(nil)
