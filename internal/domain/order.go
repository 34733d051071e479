package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderFields is what checkout hands to the order store.
type OrderFields struct {
	Name           string          `json:"name"`
	Owner          string          `json:"owner"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryOption string          `json:"delivery_option"`
	DeliveryPrice  decimal.Decimal `json:"delivery_price"`
	PromoCode      string          `json:"promo_code"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	Items          []OrderItem     `json:"items"`
}

// Order is a persisted checkout. It is never modified after creation.
type Order struct {
	ID uuid.UUID `json:"id"`
	OrderFields
	CreatedAt time.Time `json:"created_at"`
}

// DefaultOrderName generates the name used when OrderFields.Name is empty.
func DefaultOrderName(now time.Time) string {
	return fmt.Sprintf("Order-%s", now.UTC().Format(time.RFC3339Nano))
}
