// Package postgres stores products in PostgreSQL through database/sql and the
// pgx driver. It expects the table:
//
//	CREATE TABLE products (
//	    id          TEXT PRIMARY KEY,
//	    name        TEXT NOT NULL,
//	    price_pence BIGINT NOT NULL CHECK (price_pence >= 0),
//	    description TEXT NOT NULL DEFAULT '',
//	    updated_at  TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mrops-br/product-upsert-api/internal/domain"
	"github.com/mrops-br/product-upsert-api/internal/pkg/errs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ProductRepository struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewProductRepository(db *sql.DB, tracer trace.Tracer) *ProductRepository {
	return &ProductRepository{db: db, tracer: tracer}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		params    domain.ProductParams
		updatedAt time.Time
	)
	if err := row.Scan(&params.ID, &params.Name, &params.PricePence, &params.Description, &updatedAt); err != nil {
		return domain.Product{}, err
	}
	params.UpdatedAt = updatedAt.UTC()
	return domain.NewProduct(params)
}

// Save upserts the product and returns the row as stored. PostgreSQL keeps
// microsecond precision, so the returned timestamp may be truncated.
func (repo *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := repo.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", product.ID()))

	const query = `
INSERT INTO products (id, name, price_pence, description, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    price_pence = EXCLUDED.price_pence,
    description = EXCLUDED.description,
    updated_at = EXCLUDED.updated_at
RETURNING id, name, price_pence, description, updated_at`

	row := repo.db.QueryRowContext(ctx, query,
		product.ID(), product.Name(), product.PricePence(), product.Description(), product.UpdatedAt().UTC(),
	)
	saved, err := scanProduct(row)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return domain.Product{}, errs.Wrapf(err, "save product %s", product.ID())
	}

	span.SetStatus(codes.Ok, "")
	return saved, nil
}

func (repo *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctx, span := repo.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	const query = `
SELECT id, name, price_pence, description, updated_at
FROM products
WHERE id = $1
LIMIT 1`

	product, err := scanProduct(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return domain.Product{}, errs.Mark(err, domain.ErrProductNotFound)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return domain.Product{}, errs.Wrap(err, "FindByID")
	}
	return product, nil
}

func (repo *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctx, span := repo.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	const query = `
SELECT id, name, price_pence, description, updated_at
FROM products
ORDER BY id ASC`

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, errs.Wrap(err, "FindAll")
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errs.Wrap(err, "FindAll: scan")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "FindAll: rows")
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}
