package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrCouponNotFound covers both unknown codes and codes whose
	// promotion has been retired (is_active = false): a retired coupon is
	// indistinguishable from one that never existed.
	ErrCouponNotFound     = errors.New("invalid or expired coupon code")
	ErrCouponOutOfWindow  = errors.New("coupon is not valid at this time")
	ErrCouponBelowMinimum = errors.New("order subtotal below coupon minimum")
)

type Service interface {
	// Validate checks a coupon code against the active promotions and the
	// current cart subtotal. Read-only: usage counts are not touched.
	Validate(ctx context.Context, code string, subtotal float64, now time.Time) (*Promotion, error)
	Create(ctx context.Context, promo *Promotion) (*Promotion, error)
	List(ctx context.Context) ([]Promotion, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Validate(ctx context.Context, code string, subtotal float64, now time.Time) (*Promotion, error) {
	if code == "" {
		return nil, ErrCouponNotFound
	}

	promo, err := s.repo.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrPromotionNotFound) {
			return nil, ErrCouponNotFound
		}
		log.Error().Err(err).Str("code", code).Msg("service: failed to look up promotion")
		return nil, fmt.Errorf("service: failed to look up promotion: %w", err)
	}

	if now.Before(promo.StartDate) || now.After(promo.EndDate) {
		return nil, ErrCouponOutOfWindow
	}

	if promo.MinOrderAmount != nil && subtotal < *promo.MinOrderAmount {
		return nil, ErrCouponBelowMinimum
	}

	return promo, nil
}

func (s *service) Create(ctx context.Context, promo *Promotion) (*Promotion, error) {
	if promo.Code == "" {
		return nil, errors.New("service: promotion code is required")
	}
	if promo.DiscountType != DiscountPercentage && promo.DiscountType != DiscountFixed {
		return nil, fmt.Errorf("service: unknown discount type %q", promo.DiscountType)
	}
	if promo.DiscountValue <= 0 {
		return nil, errors.New("service: discount value must be positive")
	}
	if !promo.EndDate.After(promo.StartDate) {
		return nil, errors.New("service: promotion end date must be after start date")
	}

	promo.ID = uuid.Nil
	promo.UsageCount = 0
	promo.IsActive = true

	if err := s.repo.Create(ctx, promo); err != nil {
		if errors.Is(err, ErrCodeExists) {
			return nil, ErrCodeExists
		}
		log.Error().Err(err).Str("code", promo.Code).Msg("service: failed to create promotion")
		return nil, fmt.Errorf("service: failed to create promotion: %w", err)
	}

	log.Info().Stringer("promotion_id", promo.ID).Str("code", promo.Code).Msg("service: promotion created")
	return promo, nil
}

func (s *service) List(ctx context.Context) ([]Promotion, error) {
	promotions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list promotions: %w", err)
	}
	return promotions, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, ErrPromotionNotFound) {
			return ErrPromotionNotFound
		}
		return fmt.Errorf("service: failed to deactivate promotion: %w", err)
	}

	log.Info().Stringer("promotion_id", id).Msg("service: promotion deactivated")
	return nil
}
