// Package cart implements the cart aggregate: the authoritative, in-memory
// list of items selected for purchase together with its item count and total.
//
// A Cart is a value. Every operation returns a new Cart and leaves the
// receiver untouched, so a previous state can be kept for rollback.
package cart

import (
	"slices"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/money"
	"github.com/shopspring/decimal"
)

type Cart struct {
	items     []domain.CartItem
	itemCount int
	total     decimal.Decimal
}

// Snapshot is the rendered form of a Cart.
type Snapshot struct {
	Items     []domain.CartItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Total     decimal.Decimal   `json:"total"`
}

func New() Cart {
	return Cart{items: []domain.CartItem{}, total: decimal.Zero}
}

// FromItems rebuilds a cart from a list of lines, e.g. loaded from the remote
// store. Repeated product ids are merged and quantities are floored at 1.
func FromItems(items []domain.CartItem) Cart {
	c := New()
	for _, item := range items {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if i := c.index(item.ProductID); i >= 0 {
			c.items[i].Quantity += item.Quantity
			continue
		}
		c.items = append(c.items, item)
	}
	c.itemCount = money.ItemCount(c.items)
	c.total = money.ItemsTotal(c.items)
	return c
}

func (c Cart) Items() []domain.CartItem {
	return slices.Clone(c.items)
}

func (c Cart) ItemCount() int {
	return c.itemCount
}

func (c Cart) Total() decimal.Decimal {
	return c.total
}

func (c Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c Cart) Find(productID int64) (domain.CartItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}
	return domain.CartItem{}, false
}

func (c Cart) Snapshot() Snapshot {
	return Snapshot{Items: c.Items(), ItemCount: c.itemCount, Total: c.total}
}

// AddItem adds one unit of product, appending a new line when the product is
// not in the cart yet.
func (c Cart) AddItem(product domain.Product) Cart {
	items := slices.Clone(c.items)
	if i := c.index(product.ID); i >= 0 {
		items[i].Quantity++
	} else {
		items = append(items, domain.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			UnitPrice: product.Price,
			Quantity:  1,
		})
	}
	return Cart{
		items:     items,
		itemCount: c.itemCount + 1,
		total:     c.total.Add(product.Price),
	}
}

// RemoveItem drops the line for productID. Unknown ids are a no-op.
func (c Cart) RemoveItem(productID int64) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	removed := c.items[i]
	return Cart{
		items:     slices.Delete(slices.Clone(c.items), i, i+1),
		itemCount: c.itemCount - removed.Quantity,
		total:     c.total.Sub(removed.LineTotal()),
	}
}

// UpdateQuantity changes the quantity of productID by delta, clamping the
// result at 1. Unknown ids are a no-op.
func (c Cart) UpdateQuantity(productID int64, delta int) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	item := c.items[i]
	newQuantity := max(1, item.Quantity+delta)
	actual := newQuantity - item.Quantity
	if actual == 0 {
		return c
	}

	items := slices.Clone(c.items)
	items[i].Quantity = newQuantity
	return Cart{
		items:     items,
		itemCount: c.itemCount + actual,
		total:     c.total.Add(money.LineTotal(item.UnitPrice, actual)),
	}
}

func (c Cart) Clear() Cart {
	return New()
}

// Replace discards the current lines and rebuilds the cart from items.
func (c Cart) Replace(items []domain.CartItem) Cart {
	return FromItems(items)
}

func (c Cart) index(productID int64) int {
	return slices.IndexFunc(c.items, func(item domain.CartItem) bool {
		return item.ProductID == productID
	})
}
