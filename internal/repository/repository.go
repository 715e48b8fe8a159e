package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	// Create inserts a new category.
	Create(ctx context.Context, category *model.Category) error

	// GetByID retrieves a single category by its ID. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)

	// GetAll retrieves all categories with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Category, error)

	// Update overwrites a category row. Returns false when the row does not exist.
	Update(ctx context.Context, category *model.Category) (bool, error)

	// Delete removes a category. Returns false when the row does not exist.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// ProductRepository defines the interface for product data access operations.
// The ForUpdate and AdjustStock methods participate in the order-item
// transactions and therefore take an explicit pgx.Tx.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// GetByID retrieves a single product by its ID. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDForUpdate retrieves a product inside tx, locking its row until
	// the transaction ends. Returns (nil, nil) when absent.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error)

	// List retrieves products matching the filter with pagination and sorting.
	List(ctx context.Context, filter model.ProductFilter, opts model.ListOptions) ([]model.Product, error)

	// Update overwrites a product row. Returns false when the row does not exist.
	Update(ctx context.Context, product *model.Product) (bool, error)

	// Delete removes a product. Returns false when the row does not exist.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// AdjustStock applies a signed stock delta to a product within tx. The
	// row must already be locked by GetByIDForUpdate in the same transaction.
	AdjustStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// Create inserts a new order.
	Create(ctx context.Context, order *model.Order) error

	// GetByID retrieves a single order by its ID. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByIDForUpdate retrieves an order inside tx, locking its row until
	// the transaction ends. Returns (nil, nil) when absent.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// List retrieves orders matching the filter with pagination and sorting.
	List(ctx context.Context, filter model.OrderFilter, opts model.ListOptions) ([]model.Order, error)

	// Update overwrites an order's customer snapshot and date. The total is
	// engine-owned and not written here. Returns false when the row does not exist.
	Update(ctx context.Context, order *model.Order) (bool, error)

	// Delete removes an order; its items go with it via the FK cascade.
	// Returns false when the row does not exist.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// AddToTotal applies a signed money delta to an order's total within tx.
	// The row must already be locked by GetByIDForUpdate in the same transaction.
	AddToTotal(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta decimal.Decimal) error
}

// OrderItemRepository defines the interface for order-item data access
// operations. All writes run inside a transaction owned by the service layer.
type OrderItemRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new order item within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error

	// GetByID retrieves a single order item by its ID. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderItem, error)

	// GetByIDForUpdate retrieves an order item inside tx, locking its row
	// until the transaction ends. Returns (nil, nil) when absent.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.OrderItem, error)

	// Update overwrites an order item row within the provided transaction.
	Update(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error

	// Delete removes an order item within the provided transaction.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// List retrieves order items matching the filter with pagination and sorting.
	List(ctx context.Context, filter model.OrderItemFilter, opts model.ListOptions) ([]model.OrderItem, error)

	// ListByOrderID retrieves all items belonging to one order.
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
}
