package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicatePayment means another transaction already persisted an
	// order for the same payment id. The caller should fetch and return
	// that order instead of failing.
	ErrDuplicatePayment = errors.New("order with this payment id already exists")
)

type Repository interface {
	// CreateFinalized mints a date-scoped order number and inserts the
	// order plus its items in a single transaction. On success the order's
	// ID, OrderNumber, CreatedAt and UpdatedAt are filled in.
	CreateFinalized(ctx context.Context, input *Order) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateFinalized(ctx context.Context, input *Order) (err error) {
	orderID := input.ID
	if orderID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		orderID = genID
	}
	input.ID = orderID

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", orderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", orderID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()
	prefix := DayPrefix(now)

	// Bump the per-day counter and mint the number inside the transaction.
	// The row update serializes concurrent finalizations on the same day.
	var seq int
	counterQuery := `
		INSERT INTO order_counters (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = order_counters.seq + 1
		RETURNING seq
	`
	if err = tx.QueryRow(ctx, counterQuery, prefix).Scan(&seq); err != nil {
		return fmt.Errorf("repository: failed to bump order counter for day %s: %w", prefix, err)
	}
	input.OrderNumber = FormatNumber(prefix, seq)

	var couponCode *string
	var couponDiscount *float64
	if input.Coupon != nil {
		couponCode = &input.Coupon.Code
		couponDiscount = &input.Coupon.Discount
	}

	orderQuery := `
		INSERT INTO orders (id, order_number, total, status, payment_id, coupon_code, coupon_discount,
			shipping_name, shipping_email, shipping_address, shipping_city, shipping_zip, shipping_phone,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.Exec(ctx, orderQuery,
		orderID,
		input.OrderNumber,
		input.Total,
		string(input.Status),
		input.PaymentID,
		couponCode,
		couponDiscount,
		input.Shipping.Name,
		input.Shipping.Email,
		input.Shipping.Address,
		input.Shipping.City,
		input.Shipping.Zip,
		nullableString(input.Shipping.Phone),
		now,
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "orders_payment_id_key" {
			err = ErrDuplicatePayment
			return err
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	input.CreatedAt = now
	input.UpdatedAt = now

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, price, quantity, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range input.Items {
		item := &input.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return err
		}
		item.ID = itemID
		item.OrderID = orderID

		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Price,
			item.Quantity,
			item.Images,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", orderID, err)
		}
	}

	return nil
}

const orderColumns = `id, order_number, total, status, payment_id, coupon_code, coupon_discount,
	shipping_name, shipping_email, shipping_address, shipping_city, shipping_zip, shipping_phone,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var couponCode *string
	var couponDiscount *float64
	var phone *string
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.Total,
		&o.Status,
		&o.PaymentID,
		&couponCode,
		&couponDiscount,
		&o.Shipping.Name,
		&o.Shipping.Email,
		&o.Shipping.Address,
		&o.Shipping.City,
		&o.Shipping.Zip,
		&phone,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if couponCode != nil {
		o.Coupon = &CouponSnapshot{Code: *couponCode}
		if couponDiscount != nil {
			o.Coupon.Discount = *couponDiscount
		}
	}
	if phone != nil {
		o.Shipping.Phone = *phone
	}
	return &o, nil
}

func (r *postgresRepository) getOne(ctx context.Context, where string, arg any) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where

	o, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order: %w", err)
	}

	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}

	return o, nil
}

func (r *postgresRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	query := `
		SELECT id, order_id, product_id, name, price, quantity, images
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order id %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Price,
			&item.Quantity,
			&item.Images,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order id %s: %w", orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order id %s: %w", orderID, err)
	}

	return items, nil
}

func (r *postgresRepository) GetByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	return r.getOne(ctx, "payment_id = $1", paymentID)
}

func (r *postgresRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.getOne(ctx, "order_number = $1", orderNumber)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresRepository) List(ctx context.Context) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Items = make([]Item, 0)
		ordersMap[o.ID] = o
		orderIDs = append(orderIDs, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	itemsQuery := `
		SELECT id, order_id, product_id, name, price, quantity, images
		FROM order_items
		WHERE order_id = ANY($1)
	`
	itemRows, err := r.db.Query(ctx, itemsQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item Item
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Price,
			&item.Quantity,
			&item.Images,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if o, ok := ordersMap[id]; ok {
			result = append(result, *o)
		}
	}

	return result, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query,
		string(newStatus),
		time.Now().UTC(),
		orderID,
	)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("repository: order not found for status update")
		return ErrOrderNotFound
	}

	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
