// Package money holds the pricing arithmetic shared by the cart and checkout.
// All amounts are decimals; rounding to cents happens only in Cents.
package money

import (
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Cents rounds d to two decimal places, half away from zero.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// ItemsTotal is the pre-discount sum over items.
func ItemsTotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item.UnitPrice, item.Quantity))
	}
	return total
}

// ItemCount is the sum of quantities over items.
func ItemCount(items []domain.CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// Subtotal applies the discount rate to the pre-discount total.
func Subtotal(itemsTotal, discountRate decimal.Decimal) decimal.Decimal {
	return itemsTotal.Mul(one.Sub(discountRate))
}

// Discount is the amount taken off by rate, i.e. itemsTotal minus Subtotal.
func Discount(itemsTotal, discountRate decimal.Decimal) decimal.Decimal {
	return itemsTotal.Sub(Subtotal(itemsTotal, discountRate))
}

// DeliveryFee is the option price, waived when waive is set.
func DeliveryFee(option domain.DeliveryOption, waive bool) decimal.Decimal {
	if waive {
		return decimal.Zero
	}
	return option.Price
}

func Total(subtotal, deliveryFee decimal.Decimal) decimal.Decimal {
	return subtotal.Add(deliveryFee)
}

// ValidRate reports whether rate lies in [0, 1].
func ValidRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(one)
}
