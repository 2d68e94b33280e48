package dto

import (
	"time"

	"github.com/mrops-br/product-upsert-api/internal/domain"
)

// TimestampLayout is the ISO-8601 form used on the notification wire.
const TimestampLayout = domain.TimestampLayout

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// UpsertProductRequest represents the request body of PUT /products/{id}
type UpsertProductRequest struct {
	Name        string `json:"name"`
	PricePence  int64  `json:"pricePence"`
	Description string `json:"description"`
}

// ProductUpdatedDto is the payload handed to the product-updated notifier
type ProductUpdatedDto struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PricePence  int64  `json:"pricePence"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updatedAt"`
}

// ToProductUpdatedDto flattens a saved product into the notification payload
func ToProductUpdatedDto(p domain.Product) ProductUpdatedDto {
	return ProductUpdatedDto{
		ID:          p.ID(),
		Name:        p.Name(),
		PricePence:  p.PricePence(),
		Description: p.Description(),
		UpdatedAt:   FormatTimestamp(p.UpdatedAt()),
	}
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PricePence  int64  `json:"pricePence"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updatedAt"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID(),
		Name:        p.Name(),
		PricePence:  p.PricePence(),
		Description: p.Description(),
		UpdatedAt:   FormatTimestamp(p.UpdatedAt()),
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
