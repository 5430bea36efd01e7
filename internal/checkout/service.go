package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nexus-store/storefront/internal/catalog"
	"github.com/nexus-store/storefront/internal/order"
	"github.com/nexus-store/storefront/internal/pricing"
	"github.com/nexus-store/storefront/internal/promotion"
)

var (
	ErrCartEmpty      = errors.New("cart is empty")
	ErrUnknownProduct = errors.New("product is no longer available")
	ErrNoPaymentID    = errors.New("no payment id for this checkout")
)

// CartView is the hydrated cart returned to the client.
type CartView struct {
	Items    []StagedItem `json:"items"`
	Subtotal float64      `json:"subtotal"`
}

// Summary is the priced pending order returned after checkout submission.
type Summary struct {
	Items    []StagedItem          `json:"items"`
	Subtotal float64               `json:"subtotal"`
	Discount float64               `json:"discount"`
	Total    float64               `json:"total"`
	Coupon   *order.CouponSnapshot `json:"coupon,omitempty"`
}

type Service interface {
	GetCart(ctx context.Context, sessionID string) (*CartView, error)
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*CartView, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*CartView, error)

	// ValidateCoupon prices a coupon against the current cart without
	// staging anything.
	ValidateCoupon(ctx context.Context, sessionID, code string) (*Summary, error)
	// Submit stages a pending order from the cart, shipping info and an
	// optional coupon. This is the shipping-form step.
	Submit(ctx context.Context, sessionID string, shipping order.Shipping, couponCode string) (*Summary, error)
	// Abandon drops the staged pending order. The cart is kept.
	Abandon(ctx context.Context, sessionID string) error

	// PendingTotal reports the staged chargeable amount for payment
	// initiation and moves the session to the awaiting-payment state.
	PendingTotal(ctx context.Context, sessionID string) (float64, order.Shipping, error)
	// MarkCancelled records a gateway dismissal: staging stays intact so
	// the user lands back on the shipping step with nothing lost.
	MarkCancelled(ctx context.Context, sessionID string) error
	// MarkFailed records a hard payment failure reported by the gateway.
	// Staging is kept so the user can retry with another method.
	MarkFailed(ctx context.Context, sessionID string) error
	// Finalize turns the staged pending order plus a payment id into a
	// durable order. Cart and staging are cleared only after the order is
	// persisted. created reports whether this call did the persisting or
	// resolved to an order a previous call already wrote.
	Finalize(ctx context.Context, sessionID, paymentID string) (*order.Order, bool, error)
}

type service struct {
	staging    Staging
	products   catalog.Repository
	promotions promotion.Service
	orders     order.Service
}

func NewService(staging Staging, products catalog.Repository, promotions promotion.Service, orders order.Service) Service {
	return &service{
		staging:    staging,
		products:   products,
		promotions: promotions,
		orders:     orders,
	}
}

// hydrate resolves cart references against the catalog and snapshots name,
// price and images.
func (s *service) hydrate(ctx context.Context, cart *Cart) ([]StagedItem, float64, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("checkout: failed to load cart products: %w", err)
	}

	items := make([]StagedItem, 0, len(cart.Items))
	subtotal := 0.0
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrUnknownProduct, item.ProductID)
		}
		items = append(items, StagedItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  item.Quantity,
			Images:    p.Images,
		})
		subtotal += p.Price * float64(item.Quantity)
	}

	return items, subtotal, nil
}

func (s *service) cartView(ctx context.Context, cart *Cart) (*CartView, error) {
	items, subtotal, err := s.hydrate(ctx, cart)
	if err != nil {
		return nil, err
	}
	return &CartView{Items: items, Subtotal: subtotal}, nil
}

func (s *service) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	cart, err := s.staging.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.cartView(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, errors.New("checkout: quantity must be at least 1")
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
		}
		return nil, fmt.Errorf("checkout: failed to look up product: %w", err)
	}

	cart, err := s.staging.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, CartItem{ProductID: productID, Quantity: quantity})
	}

	if err := s.staging.SaveCart(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return s.cartView(ctx, cart)
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, errors.New("checkout: quantity must be at least 1")
	}

	cart, err := s.staging.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}

	if err := s.staging.SaveCart(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return s.cartView(ctx, cart)
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*CartView, error) {
	cart, err := s.staging.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	cart.Items = items

	if len(cart.Items) == 0 {
		if err := s.staging.DeleteCart(ctx, sessionID); err != nil {
			return nil, err
		}
		return &CartView{Items: []StagedItem{}}, nil
	}

	if err := s.staging.SaveCart(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return s.cartView(ctx, cart)
}

func (s *service) price(ctx context.Context, sessionID, couponCode string) ([]StagedItem, *Summary, error) {
	cart, err := s.staging.GetCart(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if len(cart.Items) == 0 {
		return nil, nil, ErrCartEmpty
	}

	items, subtotal, err := s.hydrate(ctx, cart)
	if err != nil {
		return nil, nil, err
	}

	var promo *promotion.Promotion
	if couponCode != "" {
		promo, err = s.promotions.Validate(ctx, couponCode, subtotal, time.Now().UTC())
		if err != nil {
			return nil, nil, err
		}
	}

	discount := pricing.Discount(subtotal, promo)
	summary := &Summary{
		Items:    items,
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal - discount,
	}
	if promo != nil {
		summary.Coupon = &order.CouponSnapshot{Code: promo.Code, Discount: discount}
	}

	return items, summary, nil
}

func (s *service) ValidateCoupon(ctx context.Context, sessionID, code string) (*Summary, error) {
	if code == "" {
		return nil, promotion.ErrCouponNotFound
	}
	_, summary, err := s.price(ctx, sessionID, code)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *service) Submit(ctx context.Context, sessionID string, shipping order.Shipping, couponCode string) (*Summary, error) {
	items, summary, err := s.price(ctx, sessionID, couponCode)
	if err != nil {
		return nil, err
	}

	pending := &PendingOrder{
		Items:    items,
		Subtotal: summary.Subtotal,
		Total:    summary.Total,
		Shipping: shipping,
		Coupon:   summary.Coupon,
		State:    PaymentIdle,
	}
	if err := s.staging.SavePendingOrder(ctx, sessionID, pending); err != nil {
		return nil, err
	}

	log.Info().Str("session_id", sessionID).Float64("total", summary.Total).Msg("checkout: pending order staged")
	return summary, nil
}

func (s *service) Abandon(ctx context.Context, sessionID string) error {
	return s.staging.DeletePendingOrder(ctx, sessionID)
}

func (s *service) PendingTotal(ctx context.Context, sessionID string) (float64, order.Shipping, error) {
	pending, err := s.staging.GetPendingOrder(ctx, sessionID)
	if err != nil {
		return 0, order.Shipping{}, err
	}

	pending.State = PaymentAwaiting
	if err := s.staging.SavePendingOrder(ctx, sessionID, pending); err != nil {
		return 0, order.Shipping{}, err
	}

	return pending.Total, pending.Shipping, nil
}

func (s *service) MarkCancelled(ctx context.Context, sessionID string) error {
	pending, err := s.staging.GetPendingOrder(ctx, sessionID)
	if err != nil {
		return err
	}

	pending.State = PaymentCancelled
	if err := s.staging.SavePendingOrder(ctx, sessionID, pending); err != nil {
		return err
	}

	log.Info().Str("session_id", sessionID).Msg("checkout: payment dismissed, staging kept for retry")
	return nil
}

func (s *service) MarkFailed(ctx context.Context, sessionID string) error {
	pending, err := s.staging.GetPendingOrder(ctx, sessionID)
	if err != nil {
		return err
	}

	pending.State = PaymentFailed
	if err := s.staging.SavePendingOrder(ctx, sessionID, pending); err != nil {
		return err
	}

	log.Warn().Str("session_id", sessionID).Msg("checkout: payment failed, staging kept for retry")
	return nil
}

func (s *service) Finalize(ctx context.Context, sessionID, paymentID string) (*order.Order, bool, error) {
	pending, err := s.staging.GetPendingOrder(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	// The payment id can arrive either with the live callback or from the
	// staged record on a reload replay.
	if paymentID == "" {
		paymentID = pending.PaymentID
	}
	if paymentID == "" {
		return nil, false, ErrNoPaymentID
	}

	// Record the payment id on the staged order before finalizing, so a
	// crash between here and order creation still leaves a replayable
	// record.
	if pending.PaymentID != paymentID || pending.State != PaymentPaid {
		pending.PaymentID = paymentID
		pending.State = PaymentPaid
		if err := s.staging.SavePendingOrder(ctx, sessionID, pending); err != nil {
			return nil, false, err
		}
	}

	items := make([]order.Item, 0, len(pending.Items))
	for _, item := range pending.Items {
		items = append(items, order.Item{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Images:    item.Images,
		})
	}

	o, created, err := s.orders.Finalize(ctx, paymentID, order.FinalizeInput{
		Items:    items,
		Total:    pending.Total,
		Shipping: pending.Shipping,
		Coupon:   pending.Coupon,
	})
	if err != nil {
		// Staging stays put: the user can retry without losing the cart.
		return nil, false, err
	}

	// Durably persisted; only now clear the local state. Best effort: a
	// failed cleanup leaves stale staging that the replay guard absorbs.
	if err := s.staging.DeleteCart(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("checkout: failed to clear cart after finalize")
	}
	if err := s.staging.DeletePendingOrder(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("checkout: failed to clear pending order after finalize")
	}

	if created {
		log.Info().Str("session_id", sessionID).Str("order_number", o.OrderNumber).Msg("checkout: order finalized")
	}
	return o, created, nil
}
