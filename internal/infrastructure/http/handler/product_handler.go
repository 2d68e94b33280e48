package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/product-upsert-api/internal/app/dto"
	"github.com/mrops-br/product-upsert-api/internal/app/service"
	"github.com/mrops-br/product-upsert-api/internal/domain"
	"github.com/mrops-br/product-upsert-api/internal/infrastructure/http/response"
	"github.com/mrops-br/product-upsert-api/internal/pkg/errs"
)

// maxBodyBytes bounds the upsert request body
const maxBodyBytes = 1 << 20

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// UpsertProduct handles PUT /products/{id}
func (h *ProductHandler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertProductRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	result := h.service.UpsertProduct(r.Context(), service.UpsertProductCommand{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		PricePence:  req.PricePence,
		Description: req.Description,
	})

	// The result carries only a message, so every failure kind maps to one status.
	product, ok := result.Product()
	if !ok {
		response.Message(w, http.StatusUnprocessableEntity, result.Error)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		if errs.Is(err, domain.ErrProductNotFound) {
			response.Error(w, http.StatusNotFound, domain.ErrProductNotFound)
		} else {
			response.Error(w, http.StatusInternalServerError, err)
		}
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, products)
}
