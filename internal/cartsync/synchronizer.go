// Package cartsync mirrors local cart mutations into the remote cart-item
// store.
package cartsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/logger"
	"github.com/apper-canvas/market-mosaic-media/internal/repository"
	"go.uber.org/zap"
)

type Synchronizer struct {
	store       repository.CartItemRepository
	incrementer repository.ProductIncrementer
	deleter     repository.BulkDeleter
	locks       *keyedMutex
	log         *zap.Logger
}

// New uses the store's atomic operations when it offers them. Writes for one
// (owner, product) pair are serialized within the process either way.
func New(store repository.CartItemRepository, log *zap.Logger) *Synchronizer {
	s := &Synchronizer{
		store: store,
		locks: newKeyedMutex(),
		log:   log,
	}
	s.incrementer, _ = store.(repository.ProductIncrementer)
	s.deleter, _ = store.(repository.BulkDeleter)
	return s
}

// Load returns the owner's remote lines as cart items.
func (s *Synchronizer) Load(ctx context.Context, owner string) ([]domain.CartItem, error) {
	remote, err := s.store.List(ctx, owner)
	if err != nil {
		return nil, s.fail(ctx, "load cart", owner, 0, err)
	}
	items := make([]domain.CartItem, 0, len(remote))
	for _, r := range remote {
		items = append(items, r.ToCartItem())
	}
	return items, nil
}

// Added mirrors adding delta units of item.ProductID.
func (s *Synchronizer) Added(ctx context.Context, owner string, item domain.CartItem, delta int) error {
	unlock := s.locks.Lock(lockKey(owner, item.ProductID))
	defer unlock()

	if s.incrementer != nil {
		if _, err := s.incrementer.IncrementByProduct(ctx, owner, item, delta); err != nil {
			return s.fail(ctx, "add item to cart", owner, item.ProductID, err)
		}
		return nil
	}

	existing, found, err := s.lookup(ctx, owner, item.ProductID)
	if err != nil {
		return s.fail(ctx, "add item to cart", owner, item.ProductID, err)
	}
	if found {
		_, err = s.store.Update(ctx, owner, existing.ID, existing.Quantity+delta)
	} else {
		item.Quantity = delta
		_, err = s.store.Create(ctx, owner, item)
	}
	if err != nil {
		return s.fail(ctx, "add item to cart", owner, item.ProductID, err)
	}
	return nil
}

// QuantityChanged mirrors a line's new absolute quantity. A line missing from
// the remote store is recreated.
func (s *Synchronizer) QuantityChanged(ctx context.Context, owner string, item domain.CartItem) error {
	unlock := s.locks.Lock(lockKey(owner, item.ProductID))
	defer unlock()

	existing, found, err := s.lookup(ctx, owner, item.ProductID)
	if err == nil {
		if found {
			_, err = s.store.Update(ctx, owner, existing.ID, item.Quantity)
		} else {
			_, err = s.store.Create(ctx, owner, item)
		}
	}
	if err != nil {
		return s.fail(ctx, "update cart item", owner, item.ProductID, err)
	}
	return nil
}

// Removed mirrors removing a line. A line already gone remotely is not an
// error.
func (s *Synchronizer) Removed(ctx context.Context, owner string, productID int64) error {
	unlock := s.locks.Lock(lockKey(owner, productID))
	defer unlock()

	existing, found, err := s.lookup(ctx, owner, productID)
	if err != nil {
		return s.fail(ctx, "remove cart item", owner, productID, err)
	}
	if !found {
		return nil
	}
	if err := s.store.Delete(ctx, owner, existing.ID); err != nil && !errors.Is(err, domain.ErrCartItemNotFound) {
		return s.fail(ctx, "remove cart item", owner, productID, err)
	}
	return nil
}

// Cleared deletes every remote line of owner.
func (s *Synchronizer) Cleared(ctx context.Context, owner string) error {
	if s.deleter != nil {
		if err := s.deleter.DeleteAll(ctx, owner); err != nil {
			return s.fail(ctx, "clear cart", owner, 0, err)
		}
		return nil
	}

	remote, err := s.store.List(ctx, owner)
	if err != nil {
		return s.fail(ctx, "clear cart", owner, 0, err)
	}
	for _, r := range remote {
		if err := s.store.Delete(ctx, owner, r.ID); err != nil && !errors.Is(err, domain.ErrCartItemNotFound) {
			return s.fail(ctx, "clear cart", owner, r.ProductID, err)
		}
	}
	return nil
}

func (s *Synchronizer) lookup(ctx context.Context, owner string, productID int64) (domain.RemoteCartItem, bool, error) {
	remote, err := s.store.List(ctx, owner)
	if err != nil {
		return domain.RemoteCartItem{}, false, err
	}
	for _, r := range remote {
		if r.ProductID == productID {
			return r, true, nil
		}
	}
	return domain.RemoteCartItem{}, false, nil
}

func (s *Synchronizer) fail(ctx context.Context, op, owner string, productID int64, err error) error {
	logger.FromContext(ctx, s.log).Error("cart sync failed",
		zap.String("op", op),
		zap.String("owner", owner),
		zap.Int64("product_id", productID),
		zap.Error(err))
	return domain.RemoteCall(op, err)
}

func lockKey(owner string, productID int64) string {
	return fmt.Sprintf("%s/%d", owner, productID)
}
