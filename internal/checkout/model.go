package checkout

import (
	"github.com/gofrs/uuid"

	"github.com/nexus-store/storefront/internal/order"
)

// PaymentState tracks where a checkout session stands against the payment
// gateway.
type PaymentState string

const (
	PaymentIdle      PaymentState = "idle"
	PaymentAwaiting  PaymentState = "awaiting_payment"
	PaymentPaid      PaymentState = "paid"
	PaymentCancelled PaymentState = "cancelled"
	PaymentFailed    PaymentState = "failed"
)

// CartItem references a product by id only; the product snapshot is taken at
// checkout submission, not while browsing.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type Cart struct {
	Items []CartItem `json:"items"`
}

// StagedItem is the product snapshot captured when the shipping form is
// submitted.
type StagedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Images    []string  `json:"images"`
}

// PendingOrder bridges the gap between checkout submission and durable order
// creation. The page may reload anywhere across the payment popup boundary,
// so everything needed to finalize lives here, not in memory.
type PendingOrder struct {
	Items     []StagedItem          `json:"items"`
	Subtotal  float64               `json:"subtotal"`
	Total     float64               `json:"total"`
	Shipping  order.Shipping        `json:"shipping"`
	Coupon    *order.CouponSnapshot `json:"coupon,omitempty"`
	PaymentID string                `json:"payment_id,omitempty"`
	State     PaymentState          `json:"state"`
}
