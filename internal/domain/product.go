package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidProductID    = errors.New("product id is required")
	ErrInvalidProductName  = errors.New("product name is required")
	ErrInvalidProductPrice = errors.New("product price must not be negative")
)

// ValidationError reports which field of a product failed validation.
// It unwraps to one of the ErrInvalidProduct* sentinels.
type ValidationError struct {
	Field string
	err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.err.Error())
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// ProductParams holds the raw fields a Product is built from.
type ProductParams struct {
	ID          string
	Name        string
	PricePence  int64
	Description string
	UpdatedAt   time.Time
}

// Product is an immutable product value. Updating a product means
// building a new value and saving it under the same ID.
type Product struct {
	id          string
	name        string
	pricePence  int64
	description string
	updatedAt   time.Time
}

// NewProduct validates params and builds a Product.
func NewProduct(params ProductParams) (Product, error) {
	if strings.TrimSpace(params.ID) == "" {
		return Product{}, &ValidationError{Field: "id", err: ErrInvalidProductID}
	}
	if strings.TrimSpace(params.Name) == "" {
		return Product{}, &ValidationError{Field: "name", err: ErrInvalidProductName}
	}
	if params.PricePence < 0 {
		return Product{}, &ValidationError{Field: "pricePence", err: ErrInvalidProductPrice}
	}

	return Product{
		id:          params.ID,
		name:        params.Name,
		pricePence:  params.PricePence,
		description: params.Description,
		updatedAt:   params.UpdatedAt,
	}, nil
}

// WithUpdatedAt returns a copy of p carrying t as its timestamp.
func (p Product) WithUpdatedAt(t time.Time) Product {
	p.updatedAt = t
	return p
}

func (p Product) ID() string           { return p.id }
func (p Product) Name() string         { return p.name }
func (p Product) PricePence() int64    { return p.pricePence }
func (p Product) Description() string  { return p.description }
func (p Product) UpdatedAt() time.Time { return p.updatedAt }

// TimestampLayout is the ISO-8601 form products are rendered with:
// UTC, millisecond precision, Z suffix.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type productJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PricePence  int64  `json:"pricePence"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updatedAt"`
}

// MarshalJSON renders the product for diagnostics.
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(productJSON{
		ID:          p.id,
		Name:        p.name,
		PricePence:  p.pricePence,
		Description: p.description,
		UpdatedAt:   p.updatedAt.UTC().Format(TimestampLayout),
	})
}
