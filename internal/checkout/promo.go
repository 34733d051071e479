package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/shopspring/decimal"
)

var promoCodes = map[string]domain.PromoCode{
	"WELCOME20": {Code: "WELCOME20", DiscountRate: decimal.RequireFromString("0.20"), Message: "20% off your order"},
	"FREESHIP":  {Code: "FREESHIP", DiscountRate: decimal.Zero, FreeShipping: true, Message: "Free shipping"},
	"SUMMER10":  {Code: "SUMMER10", DiscountRate: decimal.RequireFromString("0.10"), Message: "10% off your order"},
}

// NormalizeCode trims and upper-cases a user-entered promo code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromoValidator resolves a normalized code. Unknown codes yield
// domain.ErrUnknownPromoCode.
type PromoValidator interface {
	Validate(ctx context.Context, code string) (domain.PromoCode, error)
}

// StaticValidator looks codes up in the built-in table after a fixed delay.
type StaticValidator struct {
	latency time.Duration
	codes   map[string]domain.PromoCode
}

func NewStaticValidator(latency time.Duration) *StaticValidator {
	return &StaticValidator{latency: latency, codes: promoCodes}
}

func (v *StaticValidator) Validate(ctx context.Context, code string) (domain.PromoCode, error) {
	if v.latency > 0 {
		timer := time.NewTimer(v.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.PromoCode{}, ctx.Err()
		}
	}

	promo, ok := v.codes[NormalizeCode(code)]
	if !ok {
		return domain.PromoCode{}, domain.ErrUnknownPromoCode
	}
	return promo, nil
}
