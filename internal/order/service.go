package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrStatusAlreadySet        = errors.New("status is already set to the desired value")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// FinalizeInput is the staged checkout data an order is assembled from.
type FinalizeInput struct {
	Items    []Item
	Total    float64
	Shipping Shipping
	Coupon   *CouponSnapshot
}

// Publisher is notified after an order has been durably created. Finalize
// never fails because of it.
type Publisher interface {
	OrderCreated(o *Order)
}

type Service interface {
	// Finalize turns a completed payment plus staged checkout data into
	// exactly one persisted order. It is safe to call more than once with
	// the same non-empty paymentID: replays return the already-created
	// order and report created = false.
	Finalize(ctx context.Context, paymentID string, input FinalizeInput) (*Order, bool, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type service struct {
	repo      Repository
	publisher Publisher
}

func NewService(repo Repository, publisher Publisher) Service {
	return &service{repo: repo, publisher: publisher}
}

func (s *service) Finalize(ctx context.Context, paymentID string, input FinalizeInput) (*Order, bool, error) {
	// Replay guard: a page reload or duplicate gateway callback re-sends
	// the same payment id. The first persisted order wins; later payloads
	// are discarded.
	if paymentID != "" {
		existing, err := s.repo.GetByPaymentID(ctx, paymentID)
		if err == nil {
			log.Info().Str("payment_id", paymentID).Str("order_number", existing.OrderNumber).Msg("service: order already exists for payment, returning it")
			return existing, false, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			// A failed lookup must not fall through to creation: that
			// would risk a duplicate order for the same payment.
			log.Error().Err(err).Str("payment_id", paymentID).Msg("service: failed to check for existing order")
			return nil, false, fmt.Errorf("service: failed to check for existing order: %w", err)
		}
	}

	if len(input.Items) == 0 {
		return nil, false, ErrEmptyOrder
	}
	for i := range input.Items {
		item := &input.Items[i]
		if item.Quantity <= 0 {
			return nil, false, fmt.Errorf("service: order item quantity for product %s must be greater than zero", item.ProductID)
		}
		if item.Price < 0 {
			return nil, false, fmt.Errorf("service: order item price for product %s cannot be negative", item.ProductID)
		}
		if item.ProductID == uuid.Nil {
			return nil, false, errors.New("service: product id in order item cannot be nil")
		}
	}

	o := &Order{
		Items:    input.Items,
		Total:    input.Total,
		Shipping: input.Shipping,
		Status:   StatusPending,
		Coupon:   input.Coupon,
	}
	if paymentID != "" {
		o.PaymentID = &paymentID
	}

	err := s.repo.CreateFinalized(ctx, o)
	if err != nil {
		if errors.Is(err, ErrDuplicatePayment) {
			// Lost the race to a concurrent finalize for the same
			// payment. Return the winner's order.
			winner, getErr := s.repo.GetByPaymentID(ctx, paymentID)
			if getErr != nil {
				log.Error().Err(getErr).Str("payment_id", paymentID).Msg("service: failed to fetch order after duplicate payment conflict")
				return nil, false, fmt.Errorf("service: failed to fetch order after duplicate payment conflict: %w", getErr)
			}
			log.Info().Str("payment_id", paymentID).Str("order_number", winner.OrderNumber).Msg("service: concurrent finalize resolved to existing order")
			return winner, false, nil
		}
		log.Error().Err(err).Str("payment_id", paymentID).Msg("service: failed to create order")
		return nil, false, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Str("order_number", o.OrderNumber).Str("payment_id", paymentID).Msg("service: order created")

	if s.publisher != nil {
		s.publisher.OrderCreated(o)
	}

	return o, true, nil
}

func (s *service) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order by number: %w", err)
	}
	return o, nil
}

func (s *service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).Msg("service: order status unchanged, nothing to do")
		return nil
	}

	if !allowedTransitions[current.Status][newStatus] {
		log.Warn().
			Stringer("order_id", orderID).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", current.Status).Stringer("new_status", newStatus).Msg("service: order status updated")
	return nil
}
