package repository

import (
	"context"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
)

// ProductRepository is the catalog store.
type ProductRepository interface {
	// ListProducts returns products ordered by id. Categories compare
	// case-insensitively; an empty category or domain.CategoryAll in any case
	// returns every product.
	ListProducts(ctx context.Context, category string) ([]*domain.Product, error)
	// GetProduct returns domain.ErrProductNotFound when id is unknown.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// CartItemRepository is the remote cart-item store mirroring a cart per owner.
type CartItemRepository interface {
	List(ctx context.Context, owner string) ([]domain.RemoteCartItem, error)
	Create(ctx context.Context, owner string, item domain.CartItem) (domain.RemoteCartItem, error)
	// Update sets the quantity of the record remoteID. It returns
	// domain.ErrCartItemNotFound when no such record exists for owner.
	Update(ctx context.Context, owner, remoteID string, quantity int) (domain.RemoteCartItem, error)
	Delete(ctx context.Context, owner, remoteID string) error
}

// ProductIncrementer is implemented by cart-item stores able to add to the
// quantity of the owner's record for a product, creating it when missing, in
// a single atomic operation.
type ProductIncrementer interface {
	IncrementByProduct(ctx context.Context, owner string, item domain.CartItem, delta int) (domain.RemoteCartItem, error)
}

// BulkDeleter is implemented by cart-item stores able to drop every record of
// an owner at once.
type BulkDeleter interface {
	DeleteAll(ctx context.Context, owner string) error
}

// OrderRepository is the order store. Orders are immutable once created.
type OrderRepository interface {
	CreateOrder(ctx context.Context, fields domain.OrderFields) (*domain.Order, error)
	ListOrders(ctx context.Context, owner string) ([]*domain.Order, error)
}

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}
