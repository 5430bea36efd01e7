package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexus-store/storefront/internal/pricing"
	"github.com/nexus-store/storefront/internal/promotion"
)

func floatPtr(f float64) *float64 { return &f }

func TestDiscount(t *testing.T) {
	tests := []struct {
		name         string
		subtotal     float64
		promo        *promotion.Promotion
		wantDiscount float64
		wantTotal    float64
	}{
		{
			name:         "no_coupon",
			subtotal:     1000,
			promo:        nil,
			wantDiscount: 0,
			wantTotal:    1000,
		},
		{
			name:     "percentage_clamped_to_max",
			subtotal: 1000,
			promo: &promotion.Promotion{
				DiscountType:      promotion.DiscountPercentage,
				DiscountValue:     20,
				MaxDiscountAmount: floatPtr(150),
			},
			wantDiscount: 150,
			wantTotal:    850,
		},
		{
			name:     "percentage_below_max",
			subtotal: 500,
			promo: &promotion.Promotion{
				DiscountType:      promotion.DiscountPercentage,
				DiscountValue:     10,
				MaxDiscountAmount: floatPtr(150),
			},
			wantDiscount: 50,
			wantTotal:    450,
		},
		{
			name:     "percentage_without_max",
			subtotal: 2000,
			promo: &promotion.Promotion{
				DiscountType:  promotion.DiscountPercentage,
				DiscountValue: 25,
			},
			wantDiscount: 500,
			wantTotal:    1500,
		},
		{
			name:     "fixed",
			subtotal: 1000,
			promo: &promotion.Promotion{
				DiscountType:  promotion.DiscountFixed,
				DiscountValue: 100,
			},
			wantDiscount: 100,
			wantTotal:    900,
		},
		{
			// Fixed discounts are not clamped to the subtotal, so the
			// total can go negative. Deliberate: matches the storefront's
			// observed behavior.
			name:     "fixed_exceeding_subtotal",
			subtotal: 50,
			promo: &promotion.Promotion{
				DiscountType:  promotion.DiscountFixed,
				DiscountValue: 100,
			},
			wantDiscount: 100,
			wantTotal:    -50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantDiscount, pricing.Discount(tt.subtotal, tt.promo), 1e-9)
			assert.InDelta(t, tt.wantTotal, pricing.Total(tt.subtotal, tt.promo), 1e-9)
		})
	}
}
