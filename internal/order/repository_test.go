package order_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-store/storefront/internal/order"
)

var db *pgxpool.Pool

// TestMain connects to the database named by the TEST_DB_* variables and
// applies the migrations. With no TEST_DB_HOST set, every test here skips.
func TestMain(m *testing.M) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		os.Exit(m.Run())
	}

	port := getenvDefault("TEST_DB_PORT", "5432")
	user := getenvDefault("TEST_DB_USER", "postgres")
	password := getenvDefault("TEST_DB_PASSWORD", "postgres")
	dbName := getenvDefault("TEST_DB_NAME", "storefront_test")
	sslMode := getenvDefault("TEST_DB_SSLMODE", "disable")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbName, sslMode)

	var err error
	db, err = pgxpool.New(context.Background(), connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
		os.Exit(1)
	}

	dsn := fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, dbName, sslMode)
	mig, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize migrations: %v\n", err)
		os.Exit(1)
	}
	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		fmt.Fprintf(os.Stderr, "failed to apply migrations: %v\n", err)
		os.Exit(1)
	}

	exitCode := m.Run()

	db.Close()
	os.Exit(exitCode)
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupRepo(t *testing.T) order.Repository {
	t.Helper()
	if db == nil {
		t.Skip("TEST_DB_HOST not set, skipping database tests")
	}

	truncate := func() {
		_, err := db.Exec(context.Background(), "TRUNCATE TABLE order_items, orders, order_counters")
		require.NoError(t, err, "Failed to truncate tables")
	}
	truncate()
	t.Cleanup(truncate)

	return order.NewRepository(db)
}

func strPtr(s string) *string { return &s }

func finalizedOrder(paymentID string) *order.Order {
	o := &order.Order{
		Items: []order.Item{
			{ProductID: uuid.Must(uuid.NewV4()), Name: "Scented Candle", Price: 450, Quantity: 2, Images: []string{"candle.jpg"}},
		},
		Total:    900,
		Shipping: order.Shipping{Name: "Asha Rao", Email: "asha@example.com", Address: "12 Lake Rd", City: "Pune", Zip: "411001"},
		Status:   order.StatusPending,
	}
	if paymentID != "" {
		o.PaymentID = strPtr(paymentID)
	}
	return o
}

func TestRepository_CreateFinalized_SequentialNumbers(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	prefix := order.DayPrefix(time.Now().UTC())

	first := finalizedOrder("pay_seq_1")
	require.NoError(t, repo.CreateFinalized(ctx, first))
	assert.Equal(t, order.FormatNumber(prefix, 1), first.OrderNumber)

	second := finalizedOrder("pay_seq_2")
	require.NoError(t, repo.CreateFinalized(ctx, second))
	assert.Equal(t, order.FormatNumber(prefix, 2), second.OrderNumber)

	third := finalizedOrder("pay_seq_3")
	require.NoError(t, repo.CreateFinalized(ctx, third))
	assert.Equal(t, order.FormatNumber(prefix, 3), third.OrderNumber)
}

func TestRepository_CreateFinalized_DuplicatePaymentID(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := finalizedOrder("pay_dup")
	require.NoError(t, repo.CreateFinalized(ctx, first))

	second := finalizedOrder("pay_dup")
	err := repo.CreateFinalized(ctx, second)
	assert.ErrorIs(t, err, order.ErrDuplicatePayment)

	// The losing transaction must leave nothing behind: one order, and the
	// counter bump rolled back with it.
	var orderCount int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&orderCount))
	assert.Equal(t, 1, orderCount)

	next := finalizedOrder("pay_after_dup")
	require.NoError(t, repo.CreateFinalized(ctx, next))
	prefix := order.DayPrefix(time.Now().UTC())
	assert.Equal(t, order.FormatNumber(prefix, 2), next.OrderNumber)
}

func TestRepository_CreateFinalized_NilPaymentIDsDoNotConflict(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	// The unique index is partial: NULL payment ids must never collide.
	require.NoError(t, repo.CreateFinalized(ctx, finalizedOrder("")))
	require.NoError(t, repo.CreateFinalized(ctx, finalizedOrder("")))

	var orderCount int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&orderCount))
	assert.Equal(t, 2, orderCount)
}

func TestRepository_CreateFinalized_ConcurrentSamePayment(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	const attempts = 4
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			errs <- repo.CreateFinalized(ctx, finalizedOrder("pay_race"))
		}()
	}

	var created, duplicates int
	for i := 0; i < attempts; i++ {
		switch err := <-errs; {
		case err == nil:
			created++
		default:
			assert.ErrorIs(t, err, order.ErrDuplicatePayment)
			duplicates++
		}
	}

	assert.Equal(t, 1, created, "exactly one finalize should win")
	assert.Equal(t, attempts-1, duplicates)

	var orderCount int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&orderCount))
	assert.Equal(t, 1, orderCount)
}

func TestRepository_GetByPaymentID(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	created := finalizedOrder("pay_lookup")
	created.Coupon = &order.CouponSnapshot{Code: "SUMMER10", Discount: 90}
	require.NoError(t, repo.CreateFinalized(ctx, created))

	got, err := repo.GetByPaymentID(ctx, "pay_lookup")
	require.NoError(t, err)
	assert.Equal(t, created.OrderNumber, got.OrderNumber)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "pay_lookup", *got.PaymentID)
	require.NotNil(t, got.Coupon)
	assert.Equal(t, "SUMMER10", got.Coupon.Code)
	assert.InDelta(t, 90, got.Coupon.Discount, 0.001)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Scented Candle", got.Items[0].Name)
	assert.Equal(t, 2, got.Items[0].Quantity)

	_, err = repo.GetByPaymentID(ctx, "pay_unknown")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestRepository_GetByOrderNumber(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	created := finalizedOrder("pay_number")
	require.NoError(t, repo.CreateFinalized(ctx, created))

	got, err := repo.GetByOrderNumber(ctx, created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Asha Rao", got.Shipping.Name)

	_, err = repo.GetByOrderNumber(ctx, "010101-000000")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	created := finalizedOrder("pay_status")
	require.NoError(t, repo.CreateFinalized(ctx, created))

	require.NoError(t, repo.UpdateStatus(ctx, created.ID, order.StatusProcessing))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, got.Status)

	err = repo.UpdateStatus(ctx, uuid.Must(uuid.NewV4()), order.StatusProcessing)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}
