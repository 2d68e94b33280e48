package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrops-br/product-upsert-api/internal/app/dto"
	"github.com/mrops-br/product-upsert-api/internal/app/notify"
	"github.com/mrops-br/product-upsert-api/internal/domain"
	"github.com/mrops-br/product-upsert-api/internal/pkg/errs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// stackLines bounds the stack attached to storage failure logs
const stackLines = 8

// ProductService handles product use cases
type ProductService struct {
	repo              domain.ProductRepository
	notifier          notify.ProductUpdatedNotifier
	now               func() time.Time
	tracer            trace.Tracer
	logger            *slog.Logger
	productUpserts    metric.Int64Counter
	productOperations metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	notifier notify.ProductUpdatedNotifier,
	now func() time.Time,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	if now == nil {
		now = time.Now
	}

	// Initialize metrics
	productUpserts, _ := meter.Int64Counter(
		"products.upserts",
		metric.WithDescription("Total number of product upserts by result"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:              repo,
		notifier:          notifier,
		now:               now,
		tracer:            tracer,
		logger:            logger,
		productUpserts:    productUpserts,
		productOperations: productOperations,
	}
}

// Deps returns the collaborators the service runs UpsertProduct with
func (s *ProductService) Deps() UpsertProductDeps {
	return UpsertProductDeps{
		ProductRepo: s.repo,
		Now:         s.now,
		Notifier:    s.notifier,
		Logger:      s.logger,
	}
}

// UpsertProduct creates or replaces a product and notifies about the change
func (s *ProductService) UpsertProduct(ctx context.Context, cmd UpsertProductCommand) UpsertProductResult {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpsertProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", cmd.ID),
		attribute.String("product.name", cmd.Name),
		attribute.Int64("product.price_pence", cmd.PricePence),
	)

	result := UpsertProduct(ctx, s.Deps(), cmd)

	outcome := "success"
	if !result.Success {
		outcome = "failure"
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, "Upsert failed")
		s.logger.ErrorContext(ctx, "Failed to upsert product",
			slog.String("product_id", cmd.ID),
			slog.String("error", result.Error),
		)
	} else {
		span.SetStatus(codes.Ok, "Product upserted successfully")
	}

	s.productUpserts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", outcome)),
	)
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "upsert"),
			attribute.String("result", outcome),
		),
	)

	return result
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.logger.InfoContext(ctx, "Getting product by ID",
		slog.String("product_id", id),
	)

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		outcome := "not_found"
		if errs.Is(err, domain.ErrProductNotFound) {
			span.SetStatus(codes.Error, "Product not found")
			s.logger.WarnContext(ctx, "Product not found",
				slog.String("product_id", id),
			)
		} else {
			outcome = "failure"
			span.SetStatus(codes.Error, "Failed to retrieve product")
			s.logger.ErrorContext(ctx, "Failed to get product",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
				slog.Any("stack", errs.ExtractStackLines(err, stackLines)),
			)
		}
		s.productOperations.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", "read"),
				attribute.String("result", outcome),
			),
		)
		return nil, err
	}

	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "read"),
			attribute.String("result", "success"),
		),
	)

	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return dto.ToProductResponse(product), nil
}

// ListProducts retrieves all products
func (s *ProductService) ListProducts(ctx context.Context) ([]*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to retrieve products")
		s.logger.ErrorContext(ctx, "Failed to list products",
			slog.String("error", err.Error()),
			slog.Any("stack", errs.ExtractStackLines(err, stackLines)),
		)
		s.productOperations.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", "list"),
				attribute.String("result", "failure"),
			),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))

	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "list"),
			attribute.String("result", "success"),
		),
	)

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return dto.ToProductResponseList(products), nil
}
