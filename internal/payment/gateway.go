package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrAmountTooSmall mirrors the gateway's floor of 1 currency unit.
	ErrAmountTooSmall = errors.New("amount must be at least 100 minor units")
	// ErrGatewayUnavailable covers transport-level failures talking to the
	// gateway. Non-fatal: the user is told to try again.
	ErrGatewayUnavailable = errors.New("payment gateway unreachable")
)

// GatewayOrder is the gateway-side order a checkout popup is opened against.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client talks to the hosted payment gateway's REST API with key-id/secret
// basic auth.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	currency  string
	http      *http.Client
}

func NewClient(baseURL, keyID, keySecret, currency string) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		currency:  currency,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

type createOrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	Notes          map[string]string `json:"notes,omitempty"`
	PaymentCapture int               `json:"payment_capture"`
}

// CreateOrder registers an order with the gateway for the given amount in
// major currency units (e.g. rupees) and returns the gateway order the
// client-side popup is opened with.
func (c *Client) CreateOrder(ctx context.Context, amount float64, receipt string, notes map[string]string) (*GatewayOrder, error) {
	amountMinor := int64(math.Round(amount * 100))
	if amountMinor < 100 {
		return nil, ErrAmountTooSmall
	}

	payload, err := json.Marshal(createOrderRequest{
		Amount:         amountMinor,
		Currency:       c.currency,
		Receipt:        receipt,
		Notes:          notes,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("payment: failed to marshal gateway order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("payment: failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("payment: gateway request failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var gatewayErr struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&gatewayErr)
		log.Warn().Int("status", resp.StatusCode).Str("description", gatewayErr.Error.Description).Msg("payment: gateway rejected order")
		return nil, fmt.Errorf("payment: gateway returned status %d: %s", resp.StatusCode, gatewayErr.Error.Description)
	}

	var gatewayOrder GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&gatewayOrder); err != nil {
		return nil, fmt.Errorf("payment: failed to decode gateway response: %w", err)
	}

	log.Info().Str("gateway_order_id", gatewayOrder.ID).Int64("amount", gatewayOrder.Amount).Msg("payment: gateway order created")
	return &gatewayOrder, nil
}
