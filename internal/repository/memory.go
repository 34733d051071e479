package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/google/uuid"
)

// MemoryCartItemStore is a process-local cart-item store.
type MemoryCartItemStore struct {
	mu    sync.RWMutex
	items map[string][]domain.RemoteCartItem // owner -> records in insertion order
}

func NewMemoryCartItemStore() *MemoryCartItemStore {
	return &MemoryCartItemStore{
		items: make(map[string][]domain.RemoteCartItem),
	}
}

func (s *MemoryCartItemStore) List(_ context.Context, owner string) ([]domain.RemoteCartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.items[owner]), nil
}

func (s *MemoryCartItemStore) Create(_ context.Context, owner string, item domain.CartItem) (domain.RemoteCartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexByProduct(owner, item.ProductID) >= 0 {
		return domain.RemoteCartItem{}, domain.ErrDuplicateCartItem
	}
	rec := newRemoteItem(owner, item, item.Quantity)
	s.items[owner] = append(s.items[owner], rec)
	return rec, nil
}

func (s *MemoryCartItemStore) Update(_ context.Context, owner, remoteID string, quantity int) (domain.RemoteCartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(owner, remoteID)
	if i < 0 {
		return domain.RemoteCartItem{}, domain.ErrCartItemNotFound
	}
	s.items[owner][i].Quantity = quantity
	return s.items[owner][i], nil
}

func (s *MemoryCartItemStore) IncrementByProduct(_ context.Context, owner string, item domain.CartItem, delta int) (domain.RemoteCartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexByProduct(owner, item.ProductID); i >= 0 {
		s.items[owner][i].Quantity += delta
		return s.items[owner][i], nil
	}
	rec := newRemoteItem(owner, item, delta)
	s.items[owner] = append(s.items[owner], rec)
	return rec, nil
}

func (s *MemoryCartItemStore) Delete(_ context.Context, owner, remoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(owner, remoteID)
	if i < 0 {
		return domain.ErrCartItemNotFound
	}
	s.items[owner] = slices.Delete(s.items[owner], i, i+1)
	return nil
}

func (s *MemoryCartItemStore) DeleteAll(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, owner)
	return nil
}

func (s *MemoryCartItemStore) indexByID(owner, remoteID string) int {
	return slices.IndexFunc(s.items[owner], func(r domain.RemoteCartItem) bool {
		return r.ID == remoteID
	})
}

func (s *MemoryCartItemStore) indexByProduct(owner string, productID int64) int {
	return slices.IndexFunc(s.items[owner], func(r domain.RemoteCartItem) bool {
		return r.ProductID == productID
	})
}

func newRemoteItem(owner string, item domain.CartItem, quantity int) domain.RemoteCartItem {
	return domain.RemoteCartItem{
		ID:        uuid.NewString(),
		Owner:     owner,
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.UnitPrice,
		Quantity:  quantity,
		Image:     item.Image,
	}
}

// MemoryOrderStore is a process-local order store.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders []*domain.Order
	names  map[string]struct{}
	now    func() time.Time
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		names: make(map[string]struct{}),
		now:   time.Now,
	}
}

func (s *MemoryOrderStore) CreateOrder(_ context.Context, fields domain.OrderFields) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields.Items = slices.Clone(fields.Items)
	order := newOrder(fields, s.now())
	if _, taken := s.names[order.Name]; taken {
		return nil, domain.ErrDuplicateOrder
	}
	s.names[order.Name] = struct{}{}
	s.orders = append(s.orders, order)

	clone := *order
	return &clone, nil
}

// ListOrders returns the owner's orders, newest first.
func (s *MemoryOrderStore) ListOrders(_ context.Context, owner string) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []*domain.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].Owner == owner {
			clone := *s.orders[i]
			orders = append(orders, &clone)
		}
	}
	slices.SortStableFunc(orders, func(a, b *domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders, nil
}
