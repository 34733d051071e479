package checkout

import (
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/shopspring/decimal"
)

const DefaultDeliveryID = "standard"

var deliveryOptions = []domain.DeliveryOption{
	{ID: "standard", Name: "Standard Delivery", Price: decimal.RequireFromString("4.99"), Estimate: "3-5 business days"},
	{ID: "express", Name: "Express Delivery", Price: decimal.RequireFromString("9.99"), Estimate: "1-2 business days"},
	{ID: "pickup", Name: "Store Pickup", Price: decimal.Zero, Estimate: "Available tomorrow"},
}

// DeliveryOptions lists the selectable options in display order.
func DeliveryOptions() []domain.DeliveryOption {
	out := make([]domain.DeliveryOption, len(deliveryOptions))
	copy(out, deliveryOptions)
	return out
}

func LookupDelivery(id string) (domain.DeliveryOption, bool) {
	for _, opt := range deliveryOptions {
		if opt.ID == id {
			return opt, true
		}
	}
	return domain.DeliveryOption{}, false
}
