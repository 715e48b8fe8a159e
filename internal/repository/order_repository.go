package repository

import (
	"context"
	"fmt"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderColumns = "id, order_date, total_price, customer_name, customer_email, created_at, updated_at"

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.Date, &o.TotalPrice, &o.CustomerName, &o.CustomerEmail, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts a new order.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (id, order_date, total_price, customer_name, customer_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.Date,
		order.TotalPrice,
		order.CustomerName,
		order.CustomerEmail,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves a single order by its ID.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return o, nil
}

// GetByIDForUpdate retrieves an order inside tx, locking its row until the
// transaction ends.
func (r *orderRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	o, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found for update")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order row")
		return nil, fmt.Errorf("failed to lock order row: %w", err)
	}

	return o, nil
}

// List retrieves orders matching the filter with pagination and sorting.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter, opts model.ListOptions) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::numeric IS NULL OR total_price <= $1)
		ORDER BY updated_at ` + sortDirection(opts.Sort) + `
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, filter.MaxTotal, opts.Limit(), opts.Offset())
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		err := rows.Scan(&o.ID, &o.Date, &o.TotalPrice, &o.CustomerName, &o.CustomerEmail, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// Update overwrites an order's customer snapshot and date. The total is
// engine-owned and deliberately absent from the SET list.
func (r *orderRepository) Update(ctx context.Context, order *model.Order) (bool, error) {
	query := `
		UPDATE orders
		SET order_date = $2, customer_name = $3, customer_email = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		order.ID,
		order.Date,
		order.CustomerName,
		order.CustomerEmail,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return false, fmt.Errorf("failed to update order: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes an order; its items go with it via the FK cascade.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM orders WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return false, fmt.Errorf("failed to delete order: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// AddToTotal applies a signed money delta to an order's total within tx.
func (r *orderRepository) AddToTotal(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta decimal.Decimal) error {
	query := `
		UPDATE orders
		SET total_price = total_price + $2, updated_at = now()
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, id, delta)
	if err != nil {
		r.logger.Error().Err(err).
			Str("order_id", id.String()).
			Str("delta", delta.String()).
			Msg("failed to adjust order total")
		return fmt.Errorf("failed to adjust order total: %w", err)
	}

	return nil
}
