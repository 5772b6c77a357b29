package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikhaykhunmong/strapi-nextts/internal/broadcast"
	"github.com/saikhaykhunmong/strapi-nextts/internal/cart"
	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

// --- Mocks ---

type mockCartStore struct {
	lines []domain.CartLine
	err   error
	bcast *broadcast.Broadcaster
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{bcast: broadcast.New()}
}

func (m *mockCartStore) AddItem(_ context.Context, p domain.Product, quantity int) error {
	if m.err != nil {
		return m.err
	}
	if p.SoldOut {
		return cart.ErrSoldOut
	}
	if quantity < 1 {
		quantity = 1
	}
	m.lines = append(m.lines, domain.CartLine{
		ProductID: p.ID,
		Title:     p.Title,
		ImageURL:  p.ImageURL(),
		UnitPrice: p.Price,
		Quantity:  quantity,
	})
	return nil
}

func (m *mockCartStore) SetQuantity(_ context.Context, productID int64, quantity int) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.lines {
		if m.lines[i].ProductID == productID {
			m.lines[i].Quantity = quantity
		}
	}
	return nil
}

func (m *mockCartStore) RemoveItem(_ context.Context, productID int64) error {
	if m.err != nil {
		return m.err
	}
	for i, l := range m.lines {
		if l.ProductID == productID {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockCartStore) Clear(context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.lines = nil
	return nil
}

func (m *mockCartStore) Lines() []domain.CartLine {
	return m.lines
}

func (m *mockCartStore) Total() int64 {
	return domain.CartTotal(m.lines)
}

func (m *mockCartStore) Subscribe() *broadcast.Subscription {
	return m.bcast.Subscribe()
}

type mockSessionState struct {
	authenticated bool
}

func (m mockSessionState) Authenticated() bool {
	return m.authenticated
}

func withProductID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("product_id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// --- Tests ---

func TestCartAddItem_Success(t *testing.T) {
	store := newMockCartStore()
	sut := NewCartHandler(store, mockSessionState{authenticated: true}, 5*time.Second)

	body := `{"product_id":1,"title":"Rice","unit_price":100,"quantity":2}`
	recorder := httptest.NewRecorder()
	sut.AddItem(recorder, httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, int64(200), resp.Total)
}

func TestCartAddItem_Unauthenticated(t *testing.T) {
	sut := NewCartHandler(newMockCartStore(), mockSessionState{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	body := `{"product_id":1,"unit_price":100,"quantity":1}`
	sut.AddItem(recorder, httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestCartAddItem_SoldOut(t *testing.T) {
	sut := NewCartHandler(newMockCartStore(), mockSessionState{authenticated: true}, 5*time.Second)

	recorder := httptest.NewRecorder()
	body := `{"product_id":1,"unit_price":100,"quantity":1,"sold_out":true}`
	sut.AddItem(recorder, httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(body)))

	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestCartAddItem_InvalidProductID(t *testing.T) {
	sut := NewCartHandler(newMockCartStore(), mockSessionState{authenticated: true}, 5*time.Second)

	recorder := httptest.NewRecorder()
	body := `{"product_id":0,"unit_price":100,"quantity":1}`
	sut.AddItem(recorder, httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCartUpdateQuantity_Success(t *testing.T) {
	store := newMockCartStore()
	store.lines = []domain.CartLine{{ProductID: 5, UnitPrice: 100, Quantity: 1}}
	sut := NewCartHandler(store, mockSessionState{authenticated: true}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withProductID(
		httptest.NewRequest("PUT", "/api/v1/cart/items/5", strings.NewReader(`{"quantity":3}`)), "5")
	sut.UpdateQuantity(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 3, store.lines[0].Quantity)
}

func TestCartRemoveItem_Success(t *testing.T) {
	store := newMockCartStore()
	store.lines = []domain.CartLine{{ProductID: 5, UnitPrice: 100, Quantity: 1}}
	sut := NewCartHandler(store, mockSessionState{authenticated: true}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withProductID(httptest.NewRequest("DELETE", "/api/v1/cart/items/5", nil), "5")
	sut.RemoveItem(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, store.lines)
}

func TestCartRemoveItem_Unauthenticated(t *testing.T) {
	store := newMockCartStore()
	store.lines = []domain.CartLine{{ProductID: 5, UnitPrice: 100, Quantity: 1}}
	sut := NewCartHandler(store, mockSessionState{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withProductID(httptest.NewRequest("DELETE", "/api/v1/cart/items/5", nil), "5")
	sut.RemoveItem(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Len(t, store.lines, 1)
}

func TestCartClear_Success(t *testing.T) {
	store := newMockCartStore()
	store.lines = []domain.CartLine{{ProductID: 5, UnitPrice: 100, Quantity: 1}}
	sut := NewCartHandler(store, mockSessionState{authenticated: true}, 5*time.Second)

	recorder := httptest.NewRecorder()
	sut.Clear(recorder, httptest.NewRequest("DELETE", "/api/v1/cart", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, store.lines)
}

func TestCartClear_Unauthenticated(t *testing.T) {
	store := newMockCartStore()
	store.lines = []domain.CartLine{{ProductID: 5, UnitPrice: 100, Quantity: 1}}
	sut := NewCartHandler(store, mockSessionState{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	sut.Clear(recorder, httptest.NewRequest("DELETE", "/api/v1/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Len(t, store.lines, 1)
}

func TestCartGet_ReturnsLinesAndTotal(t *testing.T) {
	store := newMockCartStore()
	store.lines = []domain.CartLine{
		{ProductID: 1, UnitPrice: 100, Quantity: 2},
		{ProductID: 2, UnitPrice: 50, Quantity: 1},
	}
	sut := NewCartHandler(store, mockSessionState{authenticated: true}, 5*time.Second)

	recorder := httptest.NewRecorder()
	sut.Get(recorder, httptest.NewRequest("GET", "/api/v1/cart", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Len(t, resp.Lines, 2)
	assert.Equal(t, int64(250), resp.Total)
}
