package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-store/storefront/internal/checkout"
	"github.com/nexus-store/storefront/internal/order"
)

func setupTestStaging(t *testing.T) (checkout.Staging, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return checkout.NewRedisStaging(client), mr
}

func TestRedisStaging_CartRoundTrip(t *testing.T) {
	staging, _ := setupTestStaging(t)
	ctx := context.Background()

	productID := uuid.Must(uuid.NewV4())
	cart := &checkout.Cart{
		Items: []checkout.CartItem{{ProductID: productID, Quantity: 2}},
	}

	require.NoError(t, staging.SaveCart(ctx, "sess-1", cart))

	got, err := staging.GetCart(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, productID, got.Items[0].ProductID)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestRedisStaging_GetCart_MissingReturnsEmpty(t *testing.T) {
	staging, _ := setupTestStaging(t)

	cart, err := staging.GetCart(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestRedisStaging_CartsAreSessionScoped(t *testing.T) {
	staging, _ := setupTestStaging(t)
	ctx := context.Background()

	cart := &checkout.Cart{
		Items: []checkout.CartItem{{ProductID: uuid.Must(uuid.NewV4()), Quantity: 1}},
	}
	require.NoError(t, staging.SaveCart(ctx, "sess-a", cart))

	other, err := staging.GetCart(ctx, "sess-b")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestRedisStaging_DeleteCart(t *testing.T) {
	staging, _ := setupTestStaging(t)
	ctx := context.Background()

	cart := &checkout.Cart{
		Items: []checkout.CartItem{{ProductID: uuid.Must(uuid.NewV4()), Quantity: 1}},
	}
	require.NoError(t, staging.SaveCart(ctx, "sess-1", cart))
	require.NoError(t, staging.DeleteCart(ctx, "sess-1"))

	got, err := staging.GetCart(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestRedisStaging_PendingOrderRoundTrip(t *testing.T) {
	staging, _ := setupTestStaging(t)
	ctx := context.Background()

	pending := &checkout.PendingOrder{
		Items: []checkout.StagedItem{
			{ProductID: uuid.Must(uuid.NewV4()), Name: "Scented Candle", Price: 450, Quantity: 2},
		},
		Subtotal: 900,
		Total:    810,
		Shipping: order.Shipping{Name: "Asha Rao", Email: "asha@example.com", Address: "12 Lake Rd", City: "Pune", Zip: "411001"},
		Coupon:   &order.CouponSnapshot{Code: "SUMMER10", Discount: 90},
		State:    checkout.PaymentAwaiting,
	}

	require.NoError(t, staging.SavePendingOrder(ctx, "sess-1", pending))

	got, err := staging.GetPendingOrder(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, pending.Total, got.Total)
	assert.Equal(t, checkout.PaymentAwaiting, got.State)
	require.NotNil(t, got.Coupon)
	assert.Equal(t, "SUMMER10", got.Coupon.Code)
}

func TestRedisStaging_GetPendingOrder_Missing(t *testing.T) {
	staging, _ := setupTestStaging(t)

	_, err := staging.GetPendingOrder(context.Background(), "sess-1")
	assert.ErrorIs(t, err, checkout.ErrNoPendingOrder)
}

func TestRedisStaging_DeletePendingOrder(t *testing.T) {
	staging, _ := setupTestStaging(t)
	ctx := context.Background()

	pending := &checkout.PendingOrder{Total: 100, State: checkout.PaymentIdle}
	require.NoError(t, staging.SavePendingOrder(ctx, "sess-1", pending))
	require.NoError(t, staging.DeletePendingOrder(ctx, "sess-1"))

	_, err := staging.GetPendingOrder(ctx, "sess-1")
	assert.ErrorIs(t, err, checkout.ErrNoPendingOrder)
}

func TestRedisStaging_PendingOrderExpires(t *testing.T) {
	staging, mr := setupTestStaging(t)
	ctx := context.Background()

	pending := &checkout.PendingOrder{Total: 100, State: checkout.PaymentAwaiting}
	require.NoError(t, staging.SavePendingOrder(ctx, "sess-1", pending))

	mr.FastForward(25 * time.Hour)

	_, err := staging.GetPendingOrder(ctx, "sess-1")
	assert.ErrorIs(t, err, checkout.ErrNoPendingOrder)
}
