package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// allowedTransitions is a strict forward-only DAG. An order can be cancelled
// at any point before delivery; completed and cancelled are terminal.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {
		StatusCompleted: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Item is a point-in-time snapshot of a product at purchase. Later catalog
// edits must not change what an existing order shows.
type Item struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Images    []string  `json:"images"`
}

type Shipping struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Phone   string `json:"phone,omitempty"`
}

// CouponSnapshot records which coupon was applied and what it took off the
// subtotal, so the order stays explainable after the promotion is retired.
type CouponSnapshot struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

type Order struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	Items       []Item          `json:"items"`
	Total       float64         `json:"total"`
	Shipping    Shipping        `json:"shipping"`
	Status      Status          `json:"status"`
	PaymentID   *string         `json:"payment_id,omitempty"`
	Coupon      *CouponSnapshot `json:"coupon,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
