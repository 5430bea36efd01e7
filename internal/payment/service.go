package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Service interface {
	// CreateGatewayOrder registers the staged checkout total with the
	// gateway so the client can open the hosted payment popup.
	CreateGatewayOrder(ctx context.Context, amount float64, receipt string, notes map[string]string) (*GatewayOrder, error)
	// VerifyAndRecord checks the callback signature and, on success,
	// persists the verification. A mismatch leaves nothing recorded.
	VerifyAndRecord(ctx context.Context, gatewayOrderID, paymentID, signature string, amount float64) error
}

type service struct {
	client   *Client
	verifier *Verifier
	repo     Repository
}

func NewService(client *Client, verifier *Verifier, repo Repository) Service {
	return &service{client: client, verifier: verifier, repo: repo}
}

func (s *service) CreateGatewayOrder(ctx context.Context, amount float64, receipt string, notes map[string]string) (*GatewayOrder, error) {
	gatewayOrder, err := s.client.CreateOrder(ctx, amount, receipt, notes)
	if err != nil {
		if errors.Is(err, ErrAmountTooSmall) || errors.Is(err, ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to create gateway order: %w", err)
	}
	return gatewayOrder, nil
}

func (s *service) VerifyAndRecord(ctx context.Context, gatewayOrderID, paymentID, signature string, amount float64) error {
	if err := s.verifier.Verify(gatewayOrderID, paymentID, signature); err != nil {
		log.Warn().Str("payment_id", paymentID).Str("gateway_order_id", gatewayOrderID).Msg("service: payment signature mismatch")
		return err
	}

	v := &Verification{
		PaymentID:      paymentID,
		GatewayOrderID: gatewayOrderID,
		Amount:         amount,
	}
	if err := s.repo.RecordVerification(ctx, v); err != nil {
		log.Error().Err(err).Str("payment_id", paymentID).Msg("service: failed to record payment verification")
		return fmt.Errorf("service: failed to record payment verification: %w", err)
	}

	log.Info().Str("payment_id", paymentID).Str("gateway_order_id", gatewayOrderID).Msg("service: payment verified")
	return nil
}
