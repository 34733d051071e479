package domain

import "github.com/shopspring/decimal"

// CartItem is one line of a cart. Name, Image and UnitPrice are copied from the
// product when the line is created and never follow later catalog changes.
type CartItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is UnitPrice * Quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RemoteCartItem is the record kept by the remote cart-item store. ID is the
// store's own identifier and is unrelated to ProductID.
type RemoteCartItem struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

func (r RemoteCartItem) ToCartItem() CartItem {
	return CartItem{
		ProductID: r.ProductID,
		Name:      r.Name,
		Image:     r.Image,
		UnitPrice: r.Price,
		Quantity:  r.Quantity,
	}
}
