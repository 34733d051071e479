package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/cache"
	"github.com/apper-canvas/market-mosaic-media/internal/cartsync"
	"github.com/apper-canvas/market-mosaic-media/internal/circuitbreaker"
	"github.com/apper-canvas/market-mosaic-media/internal/config"
	"github.com/apper-canvas/market-mosaic-media/internal/repository"
	"github.com/apper-canvas/market-mosaic-media/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stores holds the backing stores picked by configuration, each behind its
// own circuit breaker.
type stores struct {
	products    repository.ProductRepository
	orders      repository.OrderRepository
	persistence session.Persistence
	cache       cache.CatalogCache

	pingers []func(ctx context.Context) error
	closers []func() error
	log     *zap.Logger
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *stores, err error) {
	st := &stores{cache: cache.Noop{}, persistence: session.LocalPersistence{}, log: log}
	defer func() {
		if err != nil {
			st.close()
		}
	}()

	breaker := func(name string) *circuitbreaker.Breaker {
		bc := circuitbreaker.DefaultConfig(name)
		bc.Timeout = cfg.BreakerTimeout
		bc.ConsecutiveFailures = cfg.BreakerFailures
		return circuitbreaker.New(bc, log)
	}

	productStore, err := repository.NewProductStore(cfg.CatalogDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	st.onClose(productStore.Close)
	st.pingers = append(st.pingers, productStore.Ping)
	if err := productStore.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	st.products = repository.GuardProducts(productStore, breaker("catalog"))
	log.Info("catalog ready", zap.String("path", cfg.CatalogDBPath))

	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.CacheTTL)
		st.onClose(redisCache.Close)
		if err := redisCache.Ping(ctx); err != nil {
			// the catalog reads through a cache that is down
			log.Warn("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		st.cache = redisCache
	}

	var orders repository.OrderRepository = repository.NewMemoryOrderStore()
	if cfg.OrderStore == "postgres" {
		orderStore, err := repository.NewOrderStore(&repository.Credentials{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			DBName:   cfg.Postgres.DBName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		st.onClose(orderStore.Close)
		st.pingers = append(st.pingers, orderStore.Ping)
		if err := orderStore.RunMigrations(); err != nil {
			return nil, fmt.Errorf("failed to migrate orders: %w", err)
		}
		orders = orderStore
	}
	st.orders = repository.GuardOrders(orders, breaker("orders"))

	if cfg.CartMode == config.CartModeRemote {
		var items repository.CartItemRepository = repository.NewMemoryCartItemStore()
		if cfg.CartStore == "mongo" {
			db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to mongo: %w", err)
			}
			mongoStore := repository.NewMongoCartItemStore(db)
			st.onClose(func() error {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return mongoStore.Close(closeCtx)
			})
			st.pingers = append(st.pingers, mongoStore.Ping)
			if err := mongoStore.CreateIndexes(ctx); err != nil {
				return nil, fmt.Errorf("failed to create cart item indexes: %w", err)
			}
			items = mongoStore
		}
		st.persistence = cartsync.New(repository.GuardCartItems(items, breaker("cart-items")), log.Named("cartsync"))
	}

	log.Info("stores ready",
		zap.String("cart_mode", string(cfg.CartMode)),
		zap.String("cart_store", cfg.CartStore),
		zap.String("order_store", cfg.OrderStore))
	return st, nil
}

func (st *stores) onClose(fn func() error) {
	st.closers = append(st.closers, fn)
}

// ping joins the errors of every unreachable store.
func (st *stores) ping(ctx context.Context) error {
	var errs []error
	for _, p := range st.pingers {
		if err := p(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (st *stores) close() {
	for i := len(st.closers) - 1; i >= 0; i-- {
		if err := st.closers[i](); err != nil {
			st.log.Warn("failed to close store", zap.Error(err))
		}
	}
	st.closers = nil
}
