// Package notify delivers user-facing notifications to sinks.
package notify

import (
	"context"
	"time"
)

type Kind string

const (
	KindAddedToCart     Kind = "added-to-cart"
	KindRemovedFromCart Kind = "removed-from-cart"
	KindPromoApplied    Kind = "promo-applied"
	KindPromoInvalid    Kind = "promo-invalid"
	KindPromoMissing    Kind = "promo-missing"
	KindOrderPlaced     Kind = "order-placed"
	KindOrderFailed     Kind = "order-failed"
	KindCheckoutRefused Kind = "checkout-refused"
	KindCartSyncFailed  Kind = "cart-sync-failed"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

type Notification struct {
	Session string    `json:"session"`
	Kind    Kind      `json:"kind"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Sink receives notifications. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }
