package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	logger       zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger.With().Str("service", "product").Logger(),
	}
}

// Create creates a new product.
func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if err := s.validateProductRequest(req); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}
	if category == nil {
		return nil, model.ErrCategoryNotFound
	}

	now := time.Now()
	product := &model.Product{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(req.Name),
		Price:           req.Price,
		QuantityInStock: req.QuantityInStock,
		CategoryID:      req.CategoryID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("name", product.Name).
		Int("quantity_in_stock", product.QuantityInStock).
		Msg("product created")

	return product, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

// List retrieves products matching the filter. An empty result reports
// not-found to the caller.
func (s *productService) List(ctx context.Context, filter model.ProductFilter, opts model.ListOptions) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if len(products) == 0 {
		return nil, model.ErrProductNotFound
	}
	return products, nil
}

// Update applies a partial update to a product. Changing the price here does
// not touch existing line items; their unit price stays a snapshot of the
// price at the time each line was written.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req *model.ProductUpdateRequest) (*model.Product, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidInput, "product update request is nil")
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, model.NewDomainError(model.ErrCodeInvalidInput, "product name must not be empty")
		}
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, model.NewDomainError(model.ErrCodeInvalidInput, "price must not be negative")
		}
		product.Price = *req.Price
	}
	if req.QuantityInStock != nil {
		if *req.QuantityInStock < 0 {
			return nil, model.NewDomainError(model.ErrCodeInvalidInput, "quantityInStock must not be negative")
		}
		product.QuantityInStock = *req.QuantityInStock
	}
	if req.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category: %w", err)
		}
		if category == nil {
			return nil, model.ErrCategoryNotFound
		}
		product.CategoryID = *req.CategoryID
	}
	product.UpdatedAt = time.Now()

	found, err := s.productRepo.Update(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if !found {
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Delete removes a product. A product still referenced by order items cannot
// be deleted; the FK violation is reported as an input error.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return model.NewDomainError(model.ErrCodeInvalidInput, "product is referenced by order items")
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !found {
		return model.ErrProductNotFound
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// validateProductRequest validates the product creation request.
func (s *productService) validateProductRequest(req *model.ProductRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidInput, "product request is nil")
	}
	if strings.TrimSpace(req.Name) == "" {
		return model.NewDomainError(model.ErrCodeInvalidInput, "product name is required")
	}
	if !req.Price.IsPositive() {
		return model.NewDomainError(model.ErrCodeInvalidInput, "price must be positive")
	}
	if req.QuantityInStock < 0 {
		return model.NewDomainError(model.ErrCodeInvalidInput, "quantityInStock must not be negative")
	}
	if req.CategoryID == uuid.Nil {
		return model.NewDomainError(model.ErrCodeInvalidInput, "categoryId is required")
	}
	return nil
}
