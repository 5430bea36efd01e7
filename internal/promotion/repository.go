package promotion

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
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrCodeExists        = errors.New("promotion code already exists")
)

type Repository interface {
	Create(ctx context.Context, promo *Promotion) error
	GetActiveByCode(ctx context.Context, code string) (*Promotion, error)
	List(ctx context.Context) ([]Promotion, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const promotionColumns = `id, code, discount_type, discount_value, min_order_amount,
	max_discount_amount, usage_limit, usage_count, start_date, end_date, is_active,
	created_at, updated_at`

func scanPromotion(row pgx.Row) (*Promotion, error) {
	var p Promotion
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.DiscountType,
		&p.DiscountValue,
		&p.MinOrderAmount,
		&p.MaxDiscountAmount,
		&p.UsageLimit,
		&p.UsageCount,
		&p.StartDate,
		&p.EndDate,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) Create(ctx context.Context, promo *Promotion) error {
	if promo.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate promotion ID: %w", err)
		}
		promo.ID = genID
	}

	now := time.Now().UTC()
	promo.CreatedAt = now
	promo.UpdatedAt = now

	query := `
		INSERT INTO promotions (id, code, discount_type, discount_value, min_order_amount,
			max_discount_amount, usage_limit, usage_count, start_date, end_date, is_active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		promo.ID,
		promo.Code,
		string(promo.DiscountType),
		promo.DiscountValue,
		promo.MinOrderAmount,
		promo.MaxDiscountAmount,
		promo.UsageLimit,
		promo.UsageCount,
		promo.StartDate,
		promo.EndDate,
		promo.IsActive,
		promo.CreatedAt,
		promo.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrCodeExists
		}
		return fmt.Errorf("repository: failed to insert promotion: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetActiveByCode(ctx context.Context, code string) (*Promotion, error) {
	// Exact, case-sensitive code match among active promotions only.
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE code = $1 AND is_active = TRUE`

	p, err := scanPromotion(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromotionNotFound
		}
		return nil, fmt.Errorf("repository: failed to select promotion by code: %w", err)
	}

	return p, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query promotions: %w", err)
	}
	defer rows.Close()

	promotions := make([]Promotion, 0)
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan promotion: %w", err)
		}
		promotions = append(promotions, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating promotions: %w", err)
	}

	return promotions, nil
}

func (r *postgresRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE promotions SET is_active = FALSE, updated_at = $1 WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		log.Error().Err(err).Stringer("promotion_id", id).Msg("repository: failed to deactivate promotion")
		return fmt.Errorf("repository: failed to deactivate promotion %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrPromotionNotFound
	}

	return nil
}
