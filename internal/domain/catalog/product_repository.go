package catalog

import "context"

// ProductRepository is the read-only catalog lookup
type ProductRepository interface {
	// FindByID returns ErrProductNotFound when the id is unknown
	FindByID(ctx context.Context, id string) (Product, error)

	// FindAll returns every product in catalog order
	FindAll(ctx context.Context) ([]Product, error)
}
