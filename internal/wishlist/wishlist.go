// Package wishlist owns the set of liked products, unique by product id.
package wishlist

import (
	"context"
	"sync"

	"storefront-service/internal/kvstore"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

type Service struct {
	mu     sync.Mutex
	items  []models.Product
	kv     *kvstore.Store
	logger *zap.Logger
}

// NewService restores the wishlist from the persistent store.
func NewService(ctx context.Context, kv *kvstore.Store) (*Service, error) {
	s := &Service{
		kv:     kv,
		logger: util.GetLogger(),
	}

	if _, err := kv.ReadJSON(ctx, kvstore.KeyWishlist, &s.items); err != nil {
		return nil, err
	}

	return s, nil
}

// Add stores a product snapshot. Adding a product already present is a
// no-op, so the list stays unique by id.
func (s *Service) Add(ctx context.Context, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == product.ID {
			return nil
		}
	}

	s.items = append(s.items, product)
	return s.persist(ctx)
}

// Remove deletes the product with the given id if present.
func (s *Service) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	s.items = out
	return s.persist(ctx)
}

// Clear empties the wishlist and removes the persisted key.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.kv.Remove(ctx, kvstore.KeyWishlist)
}

// Items returns a copy of the wishlist.
func (s *Service) Items() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.items))
	copy(out, s.items)
	return out
}

// Contains reports whether the product id is in the wishlist. Drives the
// toggle state in the presentation layer.
func (s *Service) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func (s *Service) persist(ctx context.Context) error {
	return s.kv.Write(ctx, kvstore.KeyWishlist, s.items)
}
