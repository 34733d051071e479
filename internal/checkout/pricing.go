package checkout

import (
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/money"
	"github.com/shopspring/decimal"
)

// Pricing is the checkout summary. All amounts are rounded to cents.
type Pricing struct {
	ItemsTotal   decimal.Decimal `json:"items_total"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	// Discount is zero unless DiscountRate is positive.
	Discount      decimal.Decimal `json:"discount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryPrice decimal.Decimal `json:"delivery_price"`
	Total         decimal.Decimal `json:"total"`
}

// Price computes the summary for items. promo may be nil. waiveFreeShipping
// controls whether a free-shipping promo zeroes the delivery price.
func Price(items []domain.CartItem, promo *domain.PromoCode, delivery domain.DeliveryOption, waiveFreeShipping bool) Pricing {
	itemsTotal := money.ItemsTotal(items)

	rate := decimal.Zero
	freeShipping := false
	if promo != nil {
		rate = promo.DiscountRate
		freeShipping = promo.FreeShipping && waiveFreeShipping
	}

	subtotal := money.Cents(money.Subtotal(itemsTotal, rate))
	discount := decimal.Zero
	if rate.IsPositive() {
		discount = money.Cents(itemsTotal).Sub(subtotal)
	}
	deliveryPrice := money.Cents(money.DeliveryFee(delivery, freeShipping))

	return Pricing{
		ItemsTotal:    money.Cents(itemsTotal),
		DiscountRate:  rate,
		Discount:      discount,
		Subtotal:      subtotal,
		DeliveryPrice: deliveryPrice,
		Total:         money.Cents(money.Total(subtotal, deliveryPrice)),
	}
}
