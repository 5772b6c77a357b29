// Package cart owns the shopper's (product, quantity) selections. The store
// persists every mutation before announcing it, so a listener that re-reads
// persisted state always sees the change it was notified about.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saikhaykhunmong/strapi-nextts/internal/broadcast"
	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
	"github.com/saikhaykhunmong/strapi-nextts/internal/storage"
)

// ErrSoldOut rejects adding a product marked sold out by the catalog.
var ErrSoldOut = errors.New("product is sold out")

type persistedCart struct {
	Lines []domain.CartLine `json:"lines"`
}

// Store is the cart state container. It owns the change broadcaster; UI
// surfaces subscribe to it instead of sharing a parent.
type Store struct {
	mu    sync.Mutex
	kv    storage.KV
	log   *slog.Logger
	lines []domain.CartLine
	bcast *broadcast.Broadcaster
}

func NewStore(kv storage.KV, log *slog.Logger) *Store {
	return &Store{
		kv:    kv,
		log:   log,
		bcast: broadcast.New(),
	}
}

// Subscribe attaches a cart-changed listener. The signal has no payload;
// listeners re-read the store.
func (s *Store) Subscribe() *broadcast.Subscription {
	return s.bcast.Subscribe()
}

// Load initialises the store from persisted state. An unauthenticated
// session invalidates whatever was persisted; the record is erased and the
// cart starts empty. Call only after the session store has restored.
func (s *Store) Load(ctx context.Context, authenticated bool) error {
	if !authenticated {
		return s.Clear(ctx)
	}

	data, err := s.kv.Get(ctx, storage.CartKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	var p persistedCart
	if err := json.Unmarshal(data, &p); err != nil {
		s.log.Warn("discarding undecodable persisted cart", "error", err)
		return s.Clear(ctx)
	}

	s.mu.Lock()
	s.lines = p.Lines
	s.mu.Unlock()
	s.bcast.Notify()
	return nil
}

// AddItem creates a line for the product with the given quantity. Adding a
// product that already has a line is a no-op: lines are never duplicated,
// and in-place edits go through SetQuantity.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if product.SoldOut {
		return ErrSoldOut
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(product.ID) >= 0 {
		return nil
	}

	next := append(s.snapshot(), domain.CartLine{
		ProductID: product.ID,
		Title:     product.Title,
		ImageURL:  product.ImageURL(),
		UnitPrice: product.Price,
		Quantity:  quantity,
	})
	return s.commit(ctx, next)
}

// SetQuantity changes an existing line's quantity. Values below 1 clamp to
// 1; removal is an explicit, separate operation. Unknown products are a
// no-op.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return nil
	}

	next := s.snapshot()
	next[i].Quantity = quantity
	return s.commit(ctx, next)
}

// RemoveItem deletes the product's line. Removing an absent line is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return nil
	}

	next := s.snapshot()
	next = append(next[:i], next[i+1:]...)
	return s.commit(ctx, next)
}

// Clear empties the cart and erases the persisted record. Used after a
// successful checkout and on session teardown. Memory is emptied and the
// change announced even when the erase fails; until a later Clear or commit
// succeeds, the stale persisted record would come back on the next Load.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()

	err := s.kv.Delete(ctx, storage.CartKey)
	s.bcast.Notify()
	if err != nil {
		s.log.Error("persisted cart not erased", "error", err)
		return fmt.Errorf("failed to erase persisted cart: %w", err)
	}
	return nil
}

// Lines returns a snapshot of the cart in insertion order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Total is computed from the lines on every call, never stored.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartTotal(s.lines)
}

// commit persists the candidate state, then makes it current and notifies.
// Callers hold s.mu. On persistence failure the in-memory cart is untouched.
func (s *Store) commit(ctx context.Context, lines []domain.CartLine) error {
	data, err := json.Marshal(persistedCart{Lines: lines})
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := s.kv.Set(ctx, storage.CartKey, data); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}

	s.lines = lines
	s.bcast.Notify()
	return nil
}

func (s *Store) snapshot() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) indexOf(productID int64) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
