package repository

import (
	"context"
	"fmt"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderItemColumns = "id, order_id, product_id, quantity, unit_price, created_at, updated_at"

// sortDirection maps the API sort keyword to an ORDER BY direction.
func sortDirection(sort string) string {
	if sort == "latest" {
		return "DESC"
	}
	return "ASC"
}

// orderItemRepository implements the OrderItemRepository interface using PostgreSQL.
type orderItemRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderItemRepository creates a new PostgreSQL-backed order-item repository.
func NewOrderItemRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderItemRepository {
	return &orderItemRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "orderitem").Logger(),
	}
}

func scanOrderItem(row pgx.Row) (*model.OrderItem, error) {
	var item model.OrderItem
	err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// BeginTx starts a new database transaction.
func (r *orderItemRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a new order item within the provided transaction.
func (r *orderItemRepository) Create(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.Quantity,
		item.UnitPrice,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).
			Str("order_id", item.OrderID.String()).
			Str("product_id", item.ProductID.String()).
			Msg("failed to create order item")
		return fmt.Errorf("failed to create order item: %w", err)
	}

	return nil
}

// GetByID retrieves a single order item by its ID.
func (r *orderItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE id = $1`

	item, err := scanOrderItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_item_id", id.String()).Msg("order item not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_item_id", id.String()).Msg("failed to query order item")
		return nil, fmt.Errorf("failed to query order item: %w", err)
	}

	return item, nil
}

// GetByIDForUpdate retrieves an order item inside tx, locking its row until
// the transaction ends.
func (r *orderItemRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE id = $1 FOR UPDATE`

	item, err := scanOrderItem(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_item_id", id.String()).Msg("order item not found for update")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_item_id", id.String()).Msg("failed to lock order item row")
		return nil, fmt.Errorf("failed to lock order item row: %w", err)
	}

	return item, nil
}

// Update overwrites an order item row within the provided transaction.
func (r *orderItemRepository) Update(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error {
	query := `
		UPDATE order_items
		SET order_id = $2, product_id = $3, quantity = $4, unit_price = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.Quantity,
		item.UnitPrice,
		item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_item_id", item.ID.String()).Msg("failed to update order item")
		return fmt.Errorf("failed to update order item: %w", err)
	}

	return nil
}

// Delete removes an order item within the provided transaction.
func (r *orderItemRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `DELETE FROM order_items WHERE id = $1`

	_, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_item_id", id.String()).Msg("failed to delete order item")
		return fmt.Errorf("failed to delete order item: %w", err)
	}

	return nil
}

// List retrieves order items matching the filter with pagination and sorting.
func (r *orderItemRepository) List(ctx context.Context, filter model.OrderItemFilter, opts model.ListOptions) ([]model.OrderItem, error) {
	query := `
		SELECT ` + orderItemColumns + `
		FROM order_items
		WHERE ($1::int IS NULL OR quantity <= $1)
		ORDER BY updated_at ` + sortDirection(opts.Sort) + `
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, filter.MaxQuantity, opts.Limit(), opts.Offset())
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	return r.collectItems(rows)
}

// ListByOrderID retrieves all items belonging to one order.
func (r *orderItemRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT ` + orderItemColumns + `
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order items by order")
		return nil, fmt.Errorf("failed to query order items by order: %w", err)
	}
	defer rows.Close()

	return r.collectItems(rows)
}

func (r *orderItemRepository) collectItems(rows pgx.Rows) ([]model.OrderItem, error) {
	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}
