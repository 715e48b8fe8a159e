package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog product with its current price and stock level.
type Product struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Price           decimal.Decimal `json:"price" db:"price"`
	QuantityInStock int             `json:"quantityInStock" db:"quantity_in_stock"`
	CategoryID      uuid.UUID       `json:"categoryId" db:"category_id"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductRequest represents the request payload for creating a product.
type ProductRequest struct {
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	QuantityInStock int             `json:"quantityInStock"`
	CategoryID      uuid.UUID       `json:"categoryId"`
}

// ProductUpdateRequest represents a partial update to a product. Nil fields are
// left unchanged.
type ProductUpdateRequest struct {
	Name            *string          `json:"name,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	QuantityInStock *int             `json:"quantityInStock,omitempty"`
	CategoryID      *uuid.UUID       `json:"categoryId,omitempty"`
}

// ProductFilter holds the supported list filters for products.
type ProductFilter struct {
	Name       string
	CategoryID *uuid.UUID
}
