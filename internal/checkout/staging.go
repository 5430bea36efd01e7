package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoPendingOrder = errors.New("no pending order staged")

// Staging is the server-side stand-in for the browser's local storage: cart
// and pending-order records keyed by session, surviving page reloads and
// cleared only once an order is durably persisted.
type Staging interface {
	GetCart(ctx context.Context, sessionID string) (*Cart, error)
	SaveCart(ctx context.Context, sessionID string, cart *Cart) error
	DeleteCart(ctx context.Context, sessionID string) error

	GetPendingOrder(ctx context.Context, sessionID string) (*PendingOrder, error)
	SavePendingOrder(ctx context.Context, sessionID string, pending *PendingOrder) error
	DeletePendingOrder(ctx context.Context, sessionID string) error
}

const (
	cartTTL    = 7 * 24 * time.Hour
	pendingTTL = 24 * time.Hour
)

type redisStaging struct {
	client *redis.Client
}

func NewRedisStaging(client *redis.Client) Staging {
	return &redisStaging{client: client}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func pendingOrderKey(sessionID string) string {
	return fmt.Sprintf("pendingOrder:%s", sessionID)
}

func (r *redisStaging) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{Items: []CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("staging: redis get cart failed: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("staging: unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *redisStaging) SaveCart(ctx context.Context, sessionID string, cart *Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("staging: marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(sessionID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("staging: redis set cart failed: %w", err)
	}
	return nil
}

func (r *redisStaging) DeleteCart(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("staging: redis delete cart failed: %w", err)
	}
	return nil
}

func (r *redisStaging) GetPendingOrder(ctx context.Context, sessionID string) (*PendingOrder, error) {
	data, err := r.client.Get(ctx, pendingOrderKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoPendingOrder
	}
	if err != nil {
		return nil, fmt.Errorf("staging: redis get pending order failed: %w", err)
	}

	var pending PendingOrder
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("staging: unmarshal pending order failed: %w", err)
	}
	return &pending, nil
}

func (r *redisStaging) SavePendingOrder(ctx context.Context, sessionID string, pending *PendingOrder) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("staging: marshal pending order failed: %w", err)
	}
	if err := r.client.Set(ctx, pendingOrderKey(sessionID), data, pendingTTL).Err(); err != nil {
		return fmt.Errorf("staging: redis set pending order failed: %w", err)
	}
	return nil
}

func (r *redisStaging) DeletePendingOrder(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, pendingOrderKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("staging: redis delete pending order failed: %w", err)
	}
	return nil
}
