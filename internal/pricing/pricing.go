// Package pricing computes the chargeable amount for a cart: subtotal minus
// at most one coupon discount.
package pricing

import "github.com/nexus-store/storefront/internal/promotion"

// Discount returns the discount a promotion yields on the given subtotal.
// Percentage discounts are clamped to MaxDiscountAmount when set. Fixed
// discounts are taken as-is and may exceed the subtotal; callers that care
// about a negative total must check for it themselves.
func Discount(subtotal float64, promo *promotion.Promotion) float64 {
	if promo == nil {
		return 0
	}

	switch promo.DiscountType {
	case promotion.DiscountPercentage:
		discount := subtotal * (promo.DiscountValue / 100)
		if promo.MaxDiscountAmount != nil && discount > *promo.MaxDiscountAmount {
			discount = *promo.MaxDiscountAmount
		}
		return discount
	case promotion.DiscountFixed:
		return promo.DiscountValue
	default:
		return 0
	}
}

// Total returns subtotal minus the coupon discount.
func Total(subtotal float64, promo *promotion.Promotion) float64 {
	return subtotal - Discount(subtotal, promo)
}
