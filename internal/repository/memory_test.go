package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ CartItemRepository = (*MemoryCartItemStore)(nil)
	_ ProductIncrementer = (*MemoryCartItemStore)(nil)
	_ BulkDeleter        = (*MemoryCartItemStore)(nil)
	_ CartItemRepository = (*MongoCartItemStore)(nil)
	_ ProductIncrementer = (*MongoCartItemStore)(nil)
	_ BulkDeleter        = (*MongoCartItemStore)(nil)
	_ OrderRepository    = (*MemoryOrderStore)(nil)
	_ OrderRepository    = (*OrderStore)(nil)
	_ ProductRepository  = (*ProductStore)(nil)
)

func line(productID int64, price string) domain.CartItem {
	return domain.CartItem{
		ProductID: productID,
		Name:      "product",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  1,
	}
}

func TestMemoryCartItemStore_CRUD(t *testing.T) {
	s := NewMemoryCartItemStore()
	ctx := context.Background()

	created, err := s.Create(ctx, "alice", line(1, "10.00"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = s.Create(ctx, "alice", line(1, "10.00"))
	assert.ErrorIs(t, err, domain.ErrDuplicateCartItem)

	updated, err := s.Update(ctx, "alice", created.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = s.Update(ctx, "bob", created.ID, 4)
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)

	items, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)

	require.NoError(t, s.Delete(ctx, "alice", created.ID))
	assert.ErrorIs(t, s.Delete(ctx, "alice", created.ID), domain.ErrCartItemNotFound)
}

func TestMemoryCartItemStore_ListReturnsCopy(t *testing.T) {
	s := NewMemoryCartItemStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", line(1, "10.00"))
	require.NoError(t, err)

	items, _ := s.List(ctx, "alice")
	items[0].Quantity = 99

	again, _ := s.List(ctx, "alice")
	assert.Equal(t, 1, again[0].Quantity)
}

func TestMemoryCartItemStore_IncrementByProduct(t *testing.T) {
	s := NewMemoryCartItemStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrementByProduct(ctx, "alice", line(7, "3.00"), 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].Quantity)
}

func TestMemoryCartItemStore_DeleteAll(t *testing.T) {
	s := NewMemoryCartItemStore()
	ctx := context.Background()

	_, _ = s.Create(ctx, "alice", line(1, "1.00"))
	_, _ = s.Create(ctx, "alice", line(2, "1.00"))
	_, _ = s.Create(ctx, "bob", line(1, "1.00"))

	require.NoError(t, s.DeleteAll(ctx, "alice"))

	alice, _ := s.List(ctx, "alice")
	bob, _ := s.List(ctx, "bob")
	assert.Empty(t, alice)
	assert.Len(t, bob, 1)
}

func TestMemoryOrderStore_CreateAssignsDefaults(t *testing.T) {
	s := NewMemoryOrderStore()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	order, err := s.CreateOrder(context.Background(), domain.OrderFields{Owner: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "Order-2026-03-01T12:00:00Z", order.Name)
	assert.Equal(t, fixed, order.CreatedAt)
	assert.NotNil(t, order.Items)
}

func TestMemoryOrderStore_DuplicateName(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()

	_, err := s.CreateOrder(ctx, domain.OrderFields{Name: "gift", Owner: "alice"})
	require.NoError(t, err)

	_, err = s.CreateOrder(ctx, domain.OrderFields{Name: "gift", Owner: "alice"})
	assert.ErrorIs(t, err, domain.ErrDuplicateOrder)
}

func TestMemoryOrderStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, _ := s.CreateOrder(ctx, domain.OrderFields{Owner: "alice"})
	_, _ = s.CreateOrder(ctx, domain.OrderFields{Owner: "bob"})
	second, _ := s.CreateOrder(ctx, domain.OrderFields{Owner: "alice"})

	orders, err := s.ListOrders(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	none, err := s.ListOrders(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}
