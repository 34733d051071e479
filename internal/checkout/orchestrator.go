// Package checkout drives a session's checkout: status transitions, promo
// codes, delivery selection, pricing and order submission.
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/cart"
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/logger"
	"github.com/apper-canvas/market-mosaic-media/internal/repository"
	"go.uber.org/zap"
)

type Options struct {
	// WaiveDeliveryOnFreeShipping zeroes the delivery price while a
	// free-shipping promo is applied.
	WaiveDeliveryOnFreeShipping bool
	// OnTransition observes every status change, Completed included. It runs
	// under the orchestrator's lock and must not call back into it.
	OnTransition func(from, to domain.CheckoutStatus)
	Now          func() time.Time
}

// Orchestrator is safe for concurrent use. Promo validation runs without
// holding the internal lock so a pending check can be cancelled.
type Orchestrator struct {
	mu         sync.Mutex
	status     domain.CheckoutStatus
	promo      *domain.PromoCode
	deliveryID string

	// pendingCancel is set while a promo check is in flight.
	pendingCancel context.CancelFunc
	// promoSeq changes whenever a pending check is abandoned.
	promoSeq uint64

	validator PromoValidator
	orders    repository.OrderRepository
	opts      Options
	log       *zap.Logger
}

func New(validator PromoValidator, orders repository.OrderRepository, opts Options, log *zap.Logger) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		status:     domain.CheckoutStatusBrowsing,
		deliveryID: DefaultDeliveryID,
		validator:  validator,
		orders:     orders,
		opts:       opts,
		log:        log,
	}
}

// View is a point-in-time description of the checkout for rendering.
type View struct {
	Status       domain.CheckoutStatus `json:"status"`
	Promo        *domain.PromoCode     `json:"promo,omitempty"`
	PromoPending bool                  `json:"promo_pending"`
	Delivery     domain.DeliveryOption `json:"delivery"`
	Pricing      Pricing               `json:"pricing"`
}

func (o *Orchestrator) Status() domain.CheckoutStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Orchestrator) View(c cart.Cart) View {
	o.mu.Lock()
	defer o.mu.Unlock()

	delivery, _ := LookupDelivery(o.deliveryID)
	v := View{
		Status:       o.status,
		PromoPending: o.pendingCancel != nil,
		Delivery:     delivery,
		Pricing:      Price(c.Items(), o.promo, delivery, o.opts.WaiveDeliveryOnFreeShipping),
	}
	if o.promo != nil {
		p := *o.promo
		v.Promo = &p
	}
	return v
}

// Start enters CheckingOut. An empty cart is refused and the status stays
// Browsing. Starting while already checking out is a no-op.
func (o *Orchestrator) Start(c cart.Cart) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == domain.CheckoutStatusCheckingOut {
		return nil
	}
	if c.IsEmpty() {
		return domain.ErrEmptyCart
	}
	return o.transition(domain.CheckoutStatusCheckingOut)
}

// Back returns to Browsing and keeps the promo and delivery selections.
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == domain.CheckoutStatusBrowsing {
		return nil
	}
	return o.transition(domain.CheckoutStatusBrowsing)
}

func (o *Orchestrator) SelectDelivery(id string) (domain.DeliveryOption, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != domain.CheckoutStatusCheckingOut {
		return domain.DeliveryOption{}, domain.ErrNotCheckingOut
	}
	opt, ok := LookupDelivery(id)
	if !ok {
		return domain.DeliveryOption{}, domain.ErrUnknownDelivery
	}
	o.deliveryID = opt.ID
	return opt, nil
}

// ApplyPromo validates code and applies it on success. It blocks for the
// validator's latency. A second call while one is pending is refused; an
// unknown code leaves the current promo unchanged.
func (o *Orchestrator) ApplyPromo(ctx context.Context, code string) (domain.PromoCode, error) {
	o.mu.Lock()
	if o.status != domain.CheckoutStatusCheckingOut {
		o.mu.Unlock()
		return domain.PromoCode{}, domain.ErrNotCheckingOut
	}
	code = NormalizeCode(code)
	if code == "" {
		o.mu.Unlock()
		return domain.PromoCode{}, domain.ErrBlankPromoCode
	}
	if o.pendingCancel != nil {
		o.mu.Unlock()
		return domain.PromoCode{}, domain.ErrPromoPending
	}
	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.pendingCancel = cancel
	seq := o.promoSeq
	o.mu.Unlock()

	promo, err := o.validator.Validate(checkCtx, code)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.promoSeq != seq {
		return domain.PromoCode{}, domain.ErrPromoCancelled
	}
	o.pendingCancel = nil

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return domain.PromoCode{}, ctxErr
		}
		if !errors.Is(err, domain.ErrNotFound) {
			logger.FromContext(ctx, o.log).Error("promo validation failed", zap.String("code", code), zap.Error(err))
			err = domain.RemoteCall("validate promo code", err)
		}
		return domain.PromoCode{}, err
	}

	o.promo = &promo
	return promo, nil
}

// CancelPromo abandons a pending promo check. It reports whether one was
// pending.
func (o *Orchestrator) CancelPromo() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.abandonPendingLocked()
}

// ClearPromo abandons a pending check and removes the applied promo.
func (o *Orchestrator) ClearPromo() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.abandonPendingLocked()
	o.promo = nil
}

// Submit persists an order built from c and the current selections. On
// success the status passes through Completed back to Browsing and the
// selections reset; the caller clears the cart. On failure the status returns
// to CheckingOut and nothing else changes.
func (o *Orchestrator) Submit(ctx context.Context, c cart.Cart, owner, name string) (*domain.Order, error) {
	o.mu.Lock()
	switch o.status {
	case domain.CheckoutStatusCheckingOut:
	case domain.CheckoutStatusSubmitting:
		o.mu.Unlock()
		return nil, domain.ErrSubmitInProgress
	default:
		o.mu.Unlock()
		return nil, domain.ErrNotCheckingOut
	}
	if c.IsEmpty() {
		o.mu.Unlock()
		return nil, domain.ErrEmptyCart
	}

	delivery, _ := LookupDelivery(o.deliveryID)
	fields := BuildOrderFields(c, o.promo, delivery, o.opts.WaiveDeliveryOnFreeShipping)
	fields.Owner = owner
	fields.Name = name
	if fields.Name == "" {
		fields.Name = domain.DefaultOrderName(o.opts.Now())
	}
	if err := o.transition(domain.CheckoutStatusSubmitting); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.mu.Unlock()

	order, err := o.orders.CreateOrder(ctx, fields)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		_ = o.transition(domain.CheckoutStatusCheckingOut)
		if !errors.Is(err, domain.ErrConflict) {
			logger.FromContext(ctx, o.log).Error("order submission failed", zap.String("owner", owner), zap.Error(err))
			err = domain.RemoteCall("place order", err)
		}
		return nil, err
	}

	_ = o.transition(domain.CheckoutStatusCompleted)
	o.resetLocked()
	_ = o.transition(domain.CheckoutStatusBrowsing)
	return order, nil
}

// Reset abandons the checkout and restores the defaults.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.resetLocked()
	if o.status != domain.CheckoutStatusBrowsing {
		from := o.status
		o.status = domain.CheckoutStatusBrowsing
		o.notifyTransition(from, o.status)
	}
}

// BuildOrderFields prices c and copies its lines into order fields. Owner and
// Name are left for the caller.
func BuildOrderFields(c cart.Cart, promo *domain.PromoCode, delivery domain.DeliveryOption, waiveFreeShipping bool) domain.OrderFields {
	items := c.Items()
	pricing := Price(items, promo, delivery, waiveFreeShipping)

	lines := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	fields := domain.OrderFields{
		Subtotal:       pricing.Subtotal,
		DeliveryOption: delivery.ID,
		DeliveryPrice:  pricing.DeliveryPrice,
		Discount:       pricing.DiscountRate,
		Total:          pricing.Total,
		Items:          lines,
	}
	if promo != nil {
		fields.PromoCode = promo.Code
	}
	return fields
}

func (o *Orchestrator) resetLocked() {
	o.abandonPendingLocked()
	o.promo = nil
	o.deliveryID = DefaultDeliveryID
}

func (o *Orchestrator) abandonPendingLocked() bool {
	if o.pendingCancel == nil {
		return false
	}
	o.pendingCancel()
	o.pendingCancel = nil
	o.promoSeq++
	return true
}

func (o *Orchestrator) transition(to domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(o.status, to) {
		return domain.ErrIllegalTransition
	}
	from := o.status
	o.status = to
	o.notifyTransition(from, to)
	return nil
}

func (o *Orchestrator) notifyTransition(from, to domain.CheckoutStatus) {
	if o.opts.OnTransition != nil {
		o.opts.OnTransition(from, to)
	}
}
