package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mrops-br/product-upsert-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[string]domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// Save creates or replaces a product. The stored timestamp is truncated to
// UTC milliseconds, the precision of the notification wire format.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", product.ID()),
		attribute.String("product.name", product.Name()),
	)

	stored := product.WithUpdatedAt(product.UpdatedAt().UTC().Truncate(time.Millisecond))

	r.mu.Lock()
	_, replaced := r.products[stored.ID()]
	r.products[stored.ID()] = stored
	r.mu.Unlock()

	span.SetAttributes(attribute.Bool("product.replaced", replaced))

	r.logger.DebugContext(ctx, "Product saved in repository",
		slog.String("product_id", stored.ID()),
		slog.Bool("replaced", replaced),
	)

	span.SetStatus(codes.Ok, "Product saved")
	return stored, nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		r.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id),
		)
		return domain.Product{}, domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, nil
}

// FindAll retrieves all products ordered by ID
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	r.mu.RLock()
	products := make([]domain.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	r.mu.RUnlock()

	sort.Slice(products, func(i, j int) bool {
		return products[i].ID() < products[j].ID()
	})

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}
