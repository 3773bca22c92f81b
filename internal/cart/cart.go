// Package cart owns the active cart and the saved-for-later list.
package cart

import (
	"context"
	"sync"

	"storefront-service/internal/kvstore"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service holds cart state in memory and mirrors every mutation into the
// persistent store. Operating on an absent product id is a silent no-op.
type Service struct {
	mu     sync.Mutex
	items  []models.CartItem
	saved  []models.Product
	kv     *kvstore.Store
	logger *zap.Logger
}

// NewService restores both lists from the persistent store.
func NewService(ctx context.Context, kv *kvstore.Store) (*Service, error) {
	s := &Service{
		kv:     kv,
		logger: util.GetLogger(),
	}

	if _, err := kv.ReadJSON(ctx, kvstore.KeyCart, &s.items); err != nil {
		return nil, err
	}
	if _, err := kv.ReadJSON(ctx, kvstore.KeySavedForLater, &s.saved); err != nil {
		return nil, err
	}

	return s, nil
}

// AddToCart inserts the product with quantity 1, or bumps the quantity
// when the product is already in the cart.
func (s *Service) AddToCart(ctx context.Context, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(product.ID); item != nil {
		item.Quantity++
	} else {
		s.items = append(s.items, models.CartItem{Product: product, Quantity: 1})
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	return s.persistCart(ctx)
}

// RemoveFromCart deletes the item with the given id if present.
func (s *Service) RemoveFromCart(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = without(s.items, id)
	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	return s.persistCart(ctx)
}

// UpdateQuantity sets the quantity for an item. A quantity of zero or
// less removes the item.
func (s *Service) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.items = without(s.items, id)
	} else if item := s.find(id); item != nil {
		item.Quantity = quantity
	}

	util.CartMutationsTotal.WithLabelValues("update_quantity").Inc()
	return s.persistCart(ctx)
}

// Clear empties the cart and removes the persisted key entirely.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	return s.kv.Remove(ctx, kvstore.KeyCart)
}

// SaveForLater moves a cart item into the saved list, dropping its
// quantity. No-op if the id is not in the cart.
func (s *Service) SaveForLater(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(id)
	if item == nil {
		return nil
	}

	// snapshot before without() compacts the backing array the pointer
	// aliases
	moved := item.Product
	s.items = without(s.items, id)
	s.saved = append(s.saved, moved)
	util.CartMutationsTotal.WithLabelValues("save_for_later").Inc()

	if err := s.persistCart(ctx); err != nil {
		return err
	}
	return s.persistSaved(ctx)
}

// MoveToCart moves a saved item back into the cart with quantity 1. The
// quantity it had before saving is not restored; saving strips it. If the
// product is meanwhile back in the cart, its quantity is bumped instead.
func (s *Service) MoveToCart(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var product *models.Product
	for i := range s.saved {
		if s.saved[i].ID == id {
			product = &s.saved[i]
			break
		}
	}
	if product == nil {
		return nil
	}

	moved := *product
	s.saved = withoutProduct(s.saved, id)

	if item := s.find(id); item != nil {
		item.Quantity++
	} else {
		s.items = append(s.items, models.CartItem{Product: moved, Quantity: 1})
	}
	util.CartMutationsTotal.WithLabelValues("move_to_cart").Inc()

	if err := s.persistCart(ctx); err != nil {
		return err
	}
	return s.persistSaved(ctx)
}

// RemoveFromSaved deletes an item from the saved-for-later list.
func (s *Service) RemoveFromSaved(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saved = withoutProduct(s.saved, id)
	util.CartMutationsTotal.WithLabelValues("remove_saved").Inc()
	return s.persistSaved(ctx)
}

// Reset drops the in-memory cart without touching the persisted key. Used
// by checkout, which removes the key inside its own atomic commit.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Items returns a copy of the cart items.
func (s *Service) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// SavedItems returns a copy of the saved-for-later list.
func (s *Service) SavedItems() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.saved))
	copy(out, s.saved)
	return out
}

// ItemCount is the sum of quantities over the cart items.
func (s *Service) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Subtotal is the sum of price times quantity over the cart items only;
// saved-for-later items never count.
func (s *Service) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (s *Service) find(id int64) *models.CartItem {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i]
		}
	}
	return nil
}

func (s *Service) persistCart(ctx context.Context) error {
	return s.kv.Write(ctx, kvstore.KeyCart, s.items)
}

func (s *Service) persistSaved(ctx context.Context) error {
	return s.kv.Write(ctx, kvstore.KeySavedForLater, s.saved)
}

func without(items []models.CartItem, id int64) []models.CartItem {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func withoutProduct(products []models.Product, id int64) []models.Product {
	out := products[:0]
	for _, p := range products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
