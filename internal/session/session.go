// Package session owns the per-visitor state: the cart, its persistence,
// the checkout and the notification inbox.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/cart"
	"github.com/apper-canvas/market-mosaic-media/internal/checkout"
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/logger"
	"github.com/apper-canvas/market-mosaic-media/internal/notify"
	"go.uber.org/zap"
)

// OrderPublisher announces placed orders.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
}

// Session serializes every cart and checkout operation behind one mutex, so
// mutations and their remote sync calls happen in issue order. Promo
// validation is the exception: it runs outside the lock so it can be
// cancelled by a later request.
type Session struct {
	ID    string
	Owner string

	mu   sync.Mutex
	cart cart.Cart
	// lastSeen is unix nanoseconds, readable without mu.
	lastSeen atomic.Int64

	persist   Persistence
	rollback  bool
	checkout  *checkout.Orchestrator
	inbox     *notify.Inbox
	sink      notify.Sink
	publisher OrderPublisher
	now       func() time.Time
	log       *zap.Logger
}

// CartView is the cart as rendered to the client.
type CartView struct {
	cart.Snapshot
	Status domain.CheckoutStatus `json:"status"`
}

func (s *Session) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartViewLocked()
}

func (s *Session) Checkout() checkout.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkout.View(s.cart)
}

// Notifications drains the session inbox.
func (s *Session) Notifications() []notify.Notification {
	return s.inbox.Drain()
}

func (s *Session) AddItem(ctx context.Context, product domain.Product) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	prev := s.cart
	s.cart = s.cart.AddItem(product)
	item, _ := s.cart.Find(product.ID)

	if err := s.persist.Added(ctx, s.Owner, item, 1); err != nil {
		return s.syncFailedLocked(ctx, prev, err)
	}
	s.notify(ctx, notify.KindAddedToCart, notify.LevelSuccess, fmt.Sprintf("Added %s to your cart!", product.Name))
	return s.cartViewLocked(), nil
}

// RemoveItem drops the line for productID. An unknown product is a no-op.
func (s *Session) RemoveItem(ctx context.Context, productID int64) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if _, ok := s.cart.Find(productID); !ok {
		return s.cartViewLocked(), nil
	}
	prev := s.cart
	s.cart = s.cart.RemoveItem(productID)

	if err := s.persist.Removed(ctx, s.Owner, productID); err != nil {
		return s.syncFailedLocked(ctx, prev, err)
	}
	s.notify(ctx, notify.KindRemovedFromCart, notify.LevelInfo, "Item removed from cart")
	return s.cartViewLocked(), nil
}

// UpdateQuantity changes a line by delta, never below one. Unknown products
// and clamped no-op changes issue no remote call.
func (s *Session) UpdateQuantity(ctx context.Context, productID int64, delta int) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	before, ok := s.cart.Find(productID)
	if !ok {
		return s.cartViewLocked(), nil
	}
	prev := s.cart
	s.cart = s.cart.UpdateQuantity(productID, delta)
	after, _ := s.cart.Find(productID)
	if after.Quantity == before.Quantity {
		return s.cartViewLocked(), nil
	}

	if err := s.persist.QuantityChanged(ctx, s.Owner, after); err != nil {
		return s.syncFailedLocked(ctx, prev, err)
	}
	return s.cartViewLocked(), nil
}

func (s *Session) Clear(ctx context.Context) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.cart.IsEmpty() {
		return s.cartViewLocked(), nil
	}
	prev := s.cart
	s.cart = s.cart.Clear()

	if err := s.persist.Cleared(ctx, s.Owner); err != nil {
		return s.syncFailedLocked(ctx, prev, err)
	}
	return s.cartViewLocked(), nil
}

func (s *Session) StartCheckout(ctx context.Context) (checkout.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.checkout.Start(s.cart); err != nil {
		if errors.Is(err, domain.ErrEmptyCart) {
			s.notify(ctx, notify.KindCheckoutRefused, notify.LevelError, domain.UserMessage(err))
		}
		return s.checkout.View(s.cart), err
	}
	return s.checkout.View(s.cart), nil
}

func (s *Session) BackToCart() (checkout.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	err := s.checkout.Back()
	return s.checkout.View(s.cart), err
}

func (s *Session) SelectDelivery(id string) (checkout.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	_, err := s.checkout.SelectDelivery(id)
	return s.checkout.View(s.cart), err
}

// ApplyPromo blocks for the validation latency without holding the session
// lock.
func (s *Session) ApplyPromo(ctx context.Context, code string) (checkout.View, error) {
	s.touch()

	promo, err := s.checkout.ApplyPromo(ctx, code)
	switch {
	case err == nil:
		s.notify(ctx, notify.KindPromoApplied, notify.LevelSuccess, "Applied: "+promo.Message)
	case errors.Is(err, domain.ErrBlankPromoCode):
		s.notify(ctx, notify.KindPromoMissing, notify.LevelError, domain.UserMessage(err))
	case errors.Is(err, domain.ErrUnknownPromoCode):
		s.notify(ctx, notify.KindPromoInvalid, notify.LevelError, domain.UserMessage(err))
	}
	return s.Checkout(), err
}

// CancelPromo abandons a pending promo check and removes the applied promo.
func (s *Session) CancelPromo() checkout.View {
	s.checkout.ClearPromo()
	return s.Checkout()
}

// Submit places the order and, on success, clears the cart. A failure to
// clear the remote mirror after the order is persisted is logged and
// reported but does not fail the submit.
func (s *Session) Submit(ctx context.Context, name string) (*domain.Order, error) {
	order, err := s.submit(ctx, name)
	if err != nil {
		return nil, err
	}

	// published outside mu so a slow broker never stalls the session
	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
			logger.FromContext(ctx, s.log).Error("failed to publish order placed event",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		}
	}
	return order, nil
}

func (s *Session) submit(ctx context.Context, name string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	order, err := s.checkout.Submit(ctx, s.cart, s.Owner, name)
	if err != nil {
		if !errors.Is(err, domain.ErrSubmitInProgress) && !errors.Is(err, domain.ErrNotCheckingOut) {
			s.notify(ctx, notify.KindOrderFailed, notify.LevelError, domain.UserMessage(err))
		}
		return nil, err
	}

	s.cart = s.cart.Clear()
	if err := s.persist.Cleared(ctx, s.Owner); err != nil {
		s.notify(ctx, notify.KindCartSyncFailed, notify.LevelError, domain.UserMessage(err))
	}
	s.notify(ctx, notify.KindOrderPlaced, notify.LevelSuccess, "Order placed successfully! Thank you for shopping with us.")
	return order, nil
}

// teardown clears the cart everywhere and resets the checkout.
func (s *Session) teardown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkout.Reset()
	s.cart = s.cart.Clear()
	return s.persist.Cleared(ctx, s.Owner)
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) syncFailedLocked(ctx context.Context, prev cart.Cart, err error) (CartView, error) {
	if s.rollback {
		s.cart = prev
	}
	s.notify(ctx, notify.KindCartSyncFailed, notify.LevelError, domain.UserMessage(err))
	return s.cartViewLocked(), err
}

func (s *Session) cartViewLocked() CartView {
	return CartView{Snapshot: s.cart.Snapshot(), Status: s.checkout.Status()}
}

func (s *Session) touch() {
	s.lastSeen.Store(s.now().UnixNano())
}

func (s *Session) notify(ctx context.Context, kind notify.Kind, level notify.Level, message string) {
	n := notify.Notification{
		Session: s.ID,
		Kind:    kind,
		Level:   level,
		Message: message,
		Time:    s.now().UTC(),
	}
	if err := s.sink.Notify(ctx, n); err != nil {
		logger.FromContext(ctx, s.log).Warn("failed to deliver notification",
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}
