package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saikhaykhunmong/strapi-nextts/internal/broadcast"
	"github.com/saikhaykhunmong/strapi-nextts/internal/cart"
	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

// CartStore is what the cart surfaces need from the cart store.
type CartStore interface {
	AddItem(ctx context.Context, product domain.Product, quantity int) error
	SetQuantity(ctx context.Context, productID int64, quantity int) error
	RemoveItem(ctx context.Context, productID int64) error
	Clear(ctx context.Context) error
	Lines() []domain.CartLine
	Total() int64
	Subscribe() *broadcast.Subscription
}

// SessionState gates cart mutation on authentication.
type SessionState interface {
	Authenticated() bool
}

type CartHandler struct {
	store    CartStore
	sessions SessionState
	timeout  time.Duration
}

func NewCartHandler(store CartStore, sessions SessionState, timeout time.Duration) *CartHandler {
	return &CartHandler{store: store, sessions: sessions, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	SoldOut   bool   `json:"sold_out"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Lines []domain.CartLine `json:"lines"`
	Total int64             `json:"total"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.current())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if !h.sessions.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to add items")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.UnitPrice < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "unit_price must not be negative")
		return
	}

	product := domain.Product{
		ID:      req.ProductID,
		Title:   req.Title,
		Price:   req.UnitPrice,
		SoldOut: req.SoldOut,
	}
	if req.ImageURL != "" {
		product.Photos = []domain.Photo{{URL: req.ImageURL}}
	}

	if err := h.store.AddItem(ctx, product, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrSoldOut) {
			respondError(w, http.StatusConflict, "sold_out", "product is sold out")
			return
		}
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.current())
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if !h.sessions.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to edit the cart")
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.store.SetQuantity(ctx, productID, req.Quantity); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.current())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if !h.sessions.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to edit the cart")
		return
	}

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveItem(ctx, productID); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.current())
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if !h.sessions.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to edit the cart")
		return
	}

	if err := h.store.Clear(ctx); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.current())
}

// Events streams cart-changed signals as server-sent events. Each event is
// a bare marker; clients re-fetch the cart, mirroring the broadcaster's
// no-payload contract.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming not supported")
		return
	}

	sub := h.store.Subscribe()
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case _, open := <-sub.C:
			if !open {
				return
			}
			if _, err := w.Write([]byte("event: cart-changed\ndata: {}\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (h *CartHandler) current() CartResponseDTO {
	return CartResponseDTO{Lines: h.store.Lines(), Total: h.store.Total()}
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
