package session

import (
	"context"

	"github.com/apper-canvas/market-mosaic-media/internal/cartsync"
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
)

// Persistence mirrors cart mutations somewhere outside the session.
type Persistence interface {
	Load(ctx context.Context, owner string) ([]domain.CartItem, error)
	Added(ctx context.Context, owner string, item domain.CartItem, delta int) error
	QuantityChanged(ctx context.Context, owner string, item domain.CartItem) error
	Removed(ctx context.Context, owner string, productID int64) error
	Cleared(ctx context.Context, owner string) error
}

// LocalPersistence keeps the cart in the session only.
type LocalPersistence struct{}

func (LocalPersistence) Load(context.Context, string) ([]domain.CartItem, error) { return nil, nil }

func (LocalPersistence) Added(context.Context, string, domain.CartItem, int) error { return nil }

func (LocalPersistence) QuantityChanged(context.Context, string, domain.CartItem) error { return nil }

func (LocalPersistence) Removed(context.Context, string, int64) error { return nil }

func (LocalPersistence) Cleared(context.Context, string) error { return nil }

var (
	_ Persistence = LocalPersistence{}
	_ Persistence = (*cartsync.Synchronizer)(nil)
)
