package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a customer order. TotalPrice is a derived aggregate: it is
// maintained incrementally by the order-item service and always equals the sum
// of unitPrice*quantity over the order's current items. Order CRUD never
// writes it.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Date          time.Time       `json:"date" db:"order_date"`
	TotalPrice    decimal.Decimal `json:"totalPrice" db:"total_price"`
	CustomerName  string          `json:"customerName" db:"customer_name"`
	CustomerEmail string          `json:"customerEmail" db:"customer_email"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	Date          *time.Time `json:"date,omitempty"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
}

// OrderUpdateRequest represents a partial update to an order's customer
// snapshot and date. The total is not updatable through order CRUD.
type OrderUpdateRequest struct {
	Date          *time.Time `json:"date,omitempty"`
	CustomerName  *string    `json:"customerName,omitempty"`
	CustomerEmail *string    `json:"customerEmail,omitempty"`
}

// OrderResponse represents an order together with its line items.
type OrderResponse struct {
	Order
	Items []OrderItem `json:"items"`
}

// OrderFilter holds the supported list filters for orders.
type OrderFilter struct {
	// MaxTotal, when set, restricts results to orders with totalPrice <= MaxTotal.
	MaxTotal *decimal.Decimal
}
