package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	itemRepo  repository.OrderItemRepository
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// Create creates a new order. The total starts at zero and is only ever
// moved by the order-item service.
func (s *orderService) Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	date := now
	if req.Date != nil {
		date = *req.Date
	}

	order := &model.Order{
		ID:            uuid.New(),
		Date:          date,
		TotalPrice:    decimal.Zero,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("customer_email", order.CustomerEmail).
		Msg("order created")

	return order, nil
}

// GetByID retrieves an order by its ID together with its line items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	items, err := s.itemRepo.ListByOrderID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	if items == nil {
		items = []model.OrderItem{}
	}

	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// List retrieves orders matching the filter. An empty result reports
// not-found to the caller.
func (s *orderService) List(ctx context.Context, filter model.OrderFilter, opts model.ListOptions) ([]model.Order, error) {
	orders, err := s.orderRepo.List(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, model.ErrOrderNotFound
	}
	return orders, nil
}

// Update applies a partial update to an order's customer snapshot and date.
func (s *orderService) Update(ctx context.Context, id uuid.UUID, req *model.OrderUpdateRequest) (*model.Order, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidInput, "order update request is nil")
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if req.Date != nil {
		order.Date = *req.Date
	}
	if req.CustomerName != nil {
		if strings.TrimSpace(*req.CustomerName) == "" {
			return nil, model.NewDomainError(model.ErrCodeInvalidInput, "customerName must not be empty")
		}
		order.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerEmail != nil {
		if !strings.Contains(*req.CustomerEmail, "@") {
			return nil, model.NewDomainError(model.ErrCodeInvalidInput, "customerEmail must be a valid email address")
		}
		order.CustomerEmail = strings.TrimSpace(*req.CustomerEmail)
	}
	order.UpdatedAt = time.Now()

	found, err := s.orderRepo.Update(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if !found {
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// Delete removes an order along with its line items. Deletion is archival:
// the items go with the order and their stock reservations are not released.
func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.orderRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if !found {
		return model.ErrOrderNotFound
	}

	s.logger.Info().Str("order_id", id.String()).Msg("order deleted")
	return nil
}

// validateOrderRequest validates the order creation request.
func validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidInput, "order request is nil")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return model.NewDomainError(model.ErrCodeInvalidInput, "customerName is required")
	}
	if !strings.Contains(req.CustomerEmail, "@") {
		return model.NewDomainError(model.ErrCodeInvalidInput, "customerEmail must be a valid email address")
	}
	return nil
}
