package repository

import (
	"context"

	"github.com/apper-canvas/market-mosaic-media/internal/circuitbreaker"
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
)

type guardedProducts struct {
	inner   ProductRepository
	breaker *circuitbreaker.Breaker
}

// GuardProducts routes every catalog call through breaker.
func GuardProducts(inner ProductRepository, breaker *circuitbreaker.Breaker) ProductRepository {
	return &guardedProducts{inner: inner, breaker: breaker}
}

func (g *guardedProducts) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	return circuitbreaker.Execute(ctx, g.breaker, "load products", func(ctx context.Context) ([]*domain.Product, error) {
		return g.inner.ListProducts(ctx, category)
	})
}

func (g *guardedProducts) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return circuitbreaker.Execute(ctx, g.breaker, "load product", func(ctx context.Context) (*domain.Product, error) {
		return g.inner.GetProduct(ctx, id)
	})
}

type guardedOrders struct {
	inner   OrderRepository
	breaker *circuitbreaker.Breaker
}

func GuardOrders(inner OrderRepository, breaker *circuitbreaker.Breaker) OrderRepository {
	return &guardedOrders{inner: inner, breaker: breaker}
}

func (g *guardedOrders) CreateOrder(ctx context.Context, fields domain.OrderFields) (*domain.Order, error) {
	return circuitbreaker.Execute(ctx, g.breaker, "create order", func(ctx context.Context) (*domain.Order, error) {
		return g.inner.CreateOrder(ctx, fields)
	})
}

func (g *guardedOrders) ListOrders(ctx context.Context, owner string) ([]*domain.Order, error) {
	return circuitbreaker.Execute(ctx, g.breaker, "load orders", func(ctx context.Context) ([]*domain.Order, error) {
		return g.inner.ListOrders(ctx, owner)
	})
}

type guardedCartItems struct {
	inner   CartItemRepository
	breaker *circuitbreaker.Breaker
}

// guardedAtomicCartItems additionally forwards the optional atomic operations.
type guardedAtomicCartItems struct {
	*guardedCartItems
	incrementer ProductIncrementer
	deleter     BulkDeleter
}

// GuardCartItems routes every cart-item call through breaker. The result
// implements ProductIncrementer and BulkDeleter only when inner implements
// both.
func GuardCartItems(inner CartItemRepository, breaker *circuitbreaker.Breaker) CartItemRepository {
	base := &guardedCartItems{inner: inner, breaker: breaker}
	inc, okInc := inner.(ProductIncrementer)
	del, okDel := inner.(BulkDeleter)
	if okInc && okDel {
		return &guardedAtomicCartItems{guardedCartItems: base, incrementer: inc, deleter: del}
	}
	return base
}

func (g *guardedCartItems) List(ctx context.Context, owner string) ([]domain.RemoteCartItem, error) {
	return circuitbreaker.Execute(ctx, g.breaker, "load cart", func(ctx context.Context) ([]domain.RemoteCartItem, error) {
		return g.inner.List(ctx, owner)
	})
}

func (g *guardedCartItems) Create(ctx context.Context, owner string, item domain.CartItem) (domain.RemoteCartItem, error) {
	return circuitbreaker.Execute(ctx, g.breaker, "add item to cart", func(ctx context.Context) (domain.RemoteCartItem, error) {
		return g.inner.Create(ctx, owner, item)
	})
}

func (g *guardedCartItems) Update(ctx context.Context, owner, remoteID string, quantity int) (domain.RemoteCartItem, error) {
	return circuitbreaker.Execute(ctx, g.breaker, "update cart item", func(ctx context.Context) (domain.RemoteCartItem, error) {
		return g.inner.Update(ctx, owner, remoteID, quantity)
	})
}

func (g *guardedCartItems) Delete(ctx context.Context, owner, remoteID string) error {
	_, err := circuitbreaker.Execute(ctx, g.breaker, "remove cart item", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.inner.Delete(ctx, owner, remoteID)
	})
	return err
}

func (g *guardedAtomicCartItems) IncrementByProduct(ctx context.Context, owner string, item domain.CartItem, delta int) (domain.RemoteCartItem, error) {
	return circuitbreaker.Execute(ctx, g.breaker, "add item to cart", func(ctx context.Context) (domain.RemoteCartItem, error) {
		return g.incrementer.IncrementByProduct(ctx, owner, item, delta)
	})
}

func (g *guardedAtomicCartItems) DeleteAll(ctx context.Context, owner string) error {
	_, err := circuitbreaker.Execute(ctx, g.breaker, "clear cart", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.deleter.DeleteAll(ctx, owner)
	})
	return err
}
