package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Verification is the durable record of a signature-checked payment.
type Verification struct {
	PaymentID      string    `json:"payment_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type Repository interface {
	RecordVerification(ctx context.Context, v *Verification) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) RecordVerification(ctx context.Context, v *Verification) error {
	v.CreatedAt = time.Now().UTC()
	if v.Status == "" {
		v.Status = "verified"
	}

	// Duplicate callbacks for the same payment id are expected; the last
	// write is as good as the first.
	query := `
		INSERT INTO payments (payment_id, gateway_order_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, v.PaymentID, v.GatewayOrderID, v.Amount, v.Status, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to record payment verification: %w", err)
	}
	return nil
}
