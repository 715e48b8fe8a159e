package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem represents a line item in an order. UnitPrice is a snapshot of the
// product's price taken when the line was created or last repriced; later
// catalog price changes do not touch it.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"orderId" db:"order_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// Subtotal returns the item's contribution to its order's total.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderItemRequest represents the request payload for creating an order item.
type OrderItemRequest struct {
	OrderID   uuid.UUID `json:"orderId"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// OrderItemUpdateRequest represents a partial update to an order item. Absent
// fields default to the item's current values; the referenced order and
// product are always re-resolved.
type OrderItemUpdateRequest struct {
	OrderID   *uuid.UUID `json:"orderId,omitempty"`
	ProductID *uuid.UUID `json:"productId,omitempty"`
	Quantity  *int       `json:"quantity,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (r OrderItemUpdateRequest) Empty() bool {
	return r.OrderID == nil && r.ProductID == nil && r.Quantity == nil
}

// OrderItemFilter holds the supported list filters for order items.
type OrderItemFilter struct {
	// MaxQuantity, when set, restricts results to items with quantity <= MaxQuantity.
	MaxQuantity *int
}

// ListOptions holds pagination and sorting for list queries.
type ListOptions struct {
	Take int
	Page int
	// Sort is "latest" for newest-first by updated_at; anything else is oldest-first.
	Sort string
}

// Limit returns the page size, clamped to a sane range.
func (o ListOptions) Limit() int {
	if o.Take <= 0 {
		return 10
	}
	if o.Take > 100 {
		return 100
	}
	return o.Take
}

// Offset returns the row offset implied by the page number.
func (o ListOptions) Offset() int {
	page := o.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * o.Limit()
}
