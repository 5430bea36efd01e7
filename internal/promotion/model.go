package promotion

import (
	"time"

	"github.com/gofrs/uuid"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (dt DiscountType) String() string {
	return string(dt)
}

// Promotion is a coupon rule. UsageLimit/UsageCount exist on the admin side
// but are not enforced at checkout; nothing increments UsageCount.
type Promotion struct {
	ID                uuid.UUID    `json:"id"`
	Code              string       `json:"code"`
	DiscountType      DiscountType `json:"discount_type"`
	DiscountValue     float64      `json:"discount_value"`
	MinOrderAmount    *float64     `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *float64     `json:"max_discount_amount,omitempty"`
	UsageLimit        *int         `json:"usage_limit,omitempty"`
	UsageCount        int          `json:"usage_count"`
	StartDate         time.Time    `json:"start_date"`
	EndDate           time.Time    `json:"end_date"`
	IsActive          bool         `json:"is_active"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}
