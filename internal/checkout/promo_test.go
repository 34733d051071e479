package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticValidator_KnownCodesCaseInsensitive(t *testing.T) {
	v := NewStaticValidator(0)

	for _, code := range []string{"welcome20", " Welcome20 ", "WELCOME20"} {
		p, err := v.Validate(context.Background(), code)
		require.NoError(t, err, code)
		assert.Equal(t, "WELCOME20", p.Code)
		assert.True(t, dec("0.2").Equal(p.DiscountRate))
	}
}

func TestStaticValidator_Unknown(t *testing.T) {
	_, err := NewStaticValidator(0).Validate(context.Background(), "BOGUS")
	assert.ErrorIs(t, err, domain.ErrUnknownPromoCode)
	assert.Equal(t, "Invalid promo code", domain.UserMessage(err))
}

func TestStaticValidator_WaitsForLatency(t *testing.T) {
	v := NewStaticValidator(30 * time.Millisecond)

	start := time.Now()
	_, err := v.Validate(context.Background(), "SUMMER10")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestStaticValidator_Cancelled(t *testing.T) {
	v := NewStaticValidator(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := v.Validate(ctx, "SUMMER10")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
