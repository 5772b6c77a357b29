package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

// OrderLookup is the read-only order query surface.
type OrderLookup interface {
	FindByToken(ctx context.Context, token string) (*domain.OrderRecord, error)
	ListForCurrentUser(ctx context.Context) ([]domain.OrderRecord, error)
}

type OrdersHandler struct {
	lookup  OrderLookup
	timeout time.Duration
}

func NewOrdersHandler(lookup OrderLookup, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{lookup: lookup, timeout: timeout}
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token := chi.URLParam(r, "token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order token is required")
		return
	}

	record, err := h.lookup.FindByToken(ctx, token)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	records, err := h.lookup.ListForCurrentUser(ctx)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}
