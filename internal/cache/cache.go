package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
)

// CatalogCache holds catalog reads. Get methods return ErrCacheMiss when the
// key is absent.
type CatalogCache interface {
	GetProducts(ctx context.Context, category string) ([]*domain.Product, error)
	SetProducts(ctx context.Context, category string, products []*domain.Product) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteAll drops every cached catalog read.
	DeleteAll(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")

const (
	keyPrefix     = "catalog:"
	listKeyPrefix = keyPrefix + "list:"
)

// ListKey is the key of a category listing. Categories are normalized, so
// the empty category, "all" and "ALL" share one key.
func ListKey(category string) string {
	return listKeyPrefix + domain.NormalizeCategory(category)
}

func ProductKey(id int64) string {
	return fmt.Sprintf("%sproduct:%d", keyPrefix, id)
}

// Noop never holds anything. It stands in when no Redis is configured.
type Noop struct{}

func (Noop) GetProducts(context.Context, string) ([]*domain.Product, error) {
	return nil, ErrCacheMiss
}

func (Noop) SetProducts(context.Context, string, []*domain.Product) error { return nil }

func (Noop) GetProduct(context.Context, int64) (*domain.Product, error) { return nil, ErrCacheMiss }

func (Noop) SetProduct(context.Context, *domain.Product) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }

func (Noop) DeleteAll(context.Context) error { return nil }
