package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the contract for product storage
type ProductRepository interface {
	// Save creates or replaces the product keyed by its ID and returns
	// the stored form, which may be normalized by the storage layer.
	Save(ctx context.Context, product Product) (Product, error)
	FindByID(ctx context.Context, id string) (Product, error)
	FindAll(ctx context.Context) ([]Product, error)
}
