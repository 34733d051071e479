// Package catalog serves product reads through a read-through cache.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/cache"
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/logger"
	"github.com/apper-canvas/market-mosaic-media/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	cacheOpTimeout = time.Second
	loadTimeout    = 10 * time.Second
)

type Service struct {
	repo  repository.ProductRepository
	cache cache.CatalogCache
	sfg   singleflight.Group // collapses concurrent misses per key
	log   *zap.Logger
}

func NewService(repo repository.ProductRepository, c cache.CatalogCache, log *zap.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, cache: c, log: log}
}

// ListProducts returns the products of category, or all of them for "" and
// "all". Categories compare case-insensitively.
func (s *Service) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	category = domain.NormalizeCategory(category)
	key := cache.ListKey(category)
	v, err := s.shared(ctx, key, func(ctx context.Context) (any, error) {
		products, err := s.cache.GetProducts(ctx, category)
		if err == nil {
			return products, nil
		}
		s.logCacheError(ctx, key, err)

		products, err = s.repo.ListProducts(ctx, category)
		if err != nil {
			return nil, err
		}

		go s.fill(key, func(ctx context.Context) error {
			return s.cache.SetProducts(ctx, category, products)
		})
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Product), nil
}

// GetProduct returns domain.ErrProductNotFound for unknown ids. Misses are
// not cached.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	key := cache.ProductKey(id)
	v, err := s.shared(ctx, key, func(ctx context.Context) (any, error) {
		product, err := s.cache.GetProduct(ctx, id)
		if err == nil {
			return product, nil
		}
		s.logCacheError(ctx, key, err)

		product, err = s.repo.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}

		go s.fill(key, func(ctx context.Context) error {
			return s.cache.SetProduct(ctx, product)
		})
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// shared runs load once per key for all concurrent callers. The load is
// detached from the caller that started it and bounded by loadTimeout; each
// caller stops waiting when its own ctx is done.
func (s *Service) shared(ctx context.Context, key string, load func(ctx context.Context) (any, error)) (any, error) {
	ch := s.sfg.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return load(loadCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProductChanged drops every cached read that may include the product: its
// own entry, the unfiltered listing and the listings of the given
// categories. id 0 drops the whole cached catalog.
func (s *Service) ProductChanged(ctx context.Context, id int64, categories ...string) error {
	if id == 0 {
		if err := s.cache.DeleteAll(ctx); err != nil {
			logger.FromContext(ctx, s.log).Warn("cache invalidation failed",
				zap.String("scope", "catalog"),
				zap.Error(err))
			return err
		}
		logger.FromContext(ctx, s.log).Debug("cache invalidated", zap.String("scope", "catalog"))
		return nil
	}

	keys := []string{cache.ListKey(domain.CategoryAll), cache.ProductKey(id)}
	for _, c := range categories {
		if strings.TrimSpace(c) != "" {
			keys = append(keys, cache.ListKey(c))
		}
	}
	return s.Invalidate(ctx, keys...)
}

func (s *Service) Invalidate(ctx context.Context, keys ...string) error {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.FromContext(ctx, s.log).Warn("cache invalidation failed",
			zap.Strings("keys", keys),
			zap.Error(err))
		return err
	}
	logger.FromContext(ctx, s.log).Debug("cache invalidated", zap.Strings("keys", keys))
	return nil
}

func (s *Service) fill(key string, set func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	if err := set(ctx); err != nil {
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) logCacheError(ctx context.Context, key string, err error) {
	if errors.Is(err, cache.ErrCacheMiss) {
		return
	}
	logger.FromContext(ctx, s.log).Warn("cache get failed, reading through",
		zap.String("key", key),
		zap.Error(err))
}

// ParseProductID parses a product id path parameter.
func ParseProductID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("Invalid product id")
	}
	return id, nil
}
