package service

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
)

// CategoryService defines operations for category management.
type CategoryService interface {
	// Create creates a new category.
	Create(ctx context.Context, req *model.CategoryRequest) (*model.Category, error)

	// GetByID retrieves a single category by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)

	// GetAll retrieves all categories with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Category, error)

	// Update renames a category.
	Update(ctx context.Context, id uuid.UUID, req *model.CategoryRequest) (*model.Category, error)

	// Delete removes a category.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductService defines operations for product management.
type ProductService interface {
	// Create creates a new product.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// List retrieves products matching the filter with pagination and sorting.
	List(ctx context.Context, filter model.ProductFilter, opts model.ListOptions) ([]model.Product, error)

	// Update applies a partial update to a product.
	Update(ctx context.Context, id uuid.UUID, req *model.ProductUpdateRequest) (*model.Product, error)

	// Delete removes a product.
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderService defines operations for order management. Order CRUD never
// touches the order total; that belongs to the order-item service.
type OrderService interface {
	// Create creates a new order with a zero total.
	Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order by its ID together with its line items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)

	// List retrieves orders matching the filter with pagination and sorting.
	List(ctx context.Context, filter model.OrderFilter, opts model.ListOptions) ([]model.Order, error)

	// Update applies a partial update to an order's customer snapshot and date.
	Update(ctx context.Context, id uuid.UUID, req *model.OrderUpdateRequest) (*model.Order, error)

	// Delete removes an order along with its line items.
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderItemService defines operations for order line items. The mutating
// operations keep the order total and product stock consistent with the
// items; each runs as a single transaction over every row it touches.
type OrderItemService interface {
	// Create adds a line item to an order, freezing the product's current
	// price on it, charging the order total and reserving product stock.
	Create(ctx context.Context, req *model.OrderItemRequest) (*model.OrderItem, error)

	// GetByID retrieves a single order item by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderItem, error)

	// List retrieves order items matching the filter with pagination and sorting.
	List(ctx context.Context, filter model.OrderItemFilter, opts model.ListOptions) ([]model.OrderItem, error)

	// ListByOrderID retrieves the items of one order.
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)

	// Update changes an item's quantity, product or order, repricing it to
	// the (possibly new) product's current price and moving the total and
	// stock deltas to the right rows.
	Update(ctx context.Context, id uuid.UUID, req *model.OrderItemUpdateRequest) (*model.OrderItem, error)

	// Delete removes an item, refunding its order total contribution and
	// releasing its stock reservation. Returns the item's prior value.
	Delete(ctx context.Context, id uuid.UUID) (*model.OrderItem, error)
}
