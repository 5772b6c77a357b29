package http

import (
	"context"
	"net/http"
	"time"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

// CatalogClient lists products for a category.
type CatalogClient interface {
	ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
}

type ProductHandler struct {
	catalog CatalogClient
	timeout time.Duration
}

func NewProductHandler(catalog CatalogClient, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: catalog, timeout: timeout}
}

type ProductsResponseDTO struct {
	Products []domain.Product `json:"products"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	category := r.URL.Query().Get("category")
	if category == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "category is required")
		return
	}

	products, err := h.catalog.ProductsByCategory(ctx, category)
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to fetch products")
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponseDTO{Products: products})
}
