package domain

import "github.com/shopspring/decimal"

type PromoCode struct {
	Code         string          `json:"code"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	FreeShipping bool            `json:"free_shipping"`
	Message      string          `json:"message"`
}

type DeliveryOption struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Estimate string          `json:"estimate"`
}
