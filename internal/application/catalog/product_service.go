package catalog

import (
	"context"
	"strings"

	"github.com/cos/backend/internal/domain/catalog"
)

// ProductService serves read-only catalog lookups
type ProductService struct {
	products catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(products catalog.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// List returns every product in catalog order
func (s *ProductService) List(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// GetByID looks a product up by id; ids are matched case-insensitively
func (s *ProductService) GetByID(ctx context.Context, id string) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, strings.ToUpper(strings.TrimSpace(id)))
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	return &resp, nil
}
