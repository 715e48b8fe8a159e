package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// maxTxAttempts bounds the retries on transaction conflicts before the
// operation is surfaced as a conflict error.
const maxTxAttempts = 3

// orderItemService implements OrderItemService. Every mutating operation
// executes as one transaction holding FOR UPDATE locks on the order and
// product rows it touches, so a line item is never observable without its
// total and stock effects. Locks are taken in a deterministic order (orders
// before products, ascending ID within each kind) so concurrent operations
// cannot deadlock each other.
type orderItemService struct {
	itemRepo    repository.OrderItemRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewOrderItemService creates a new order-item service.
func NewOrderItemService(
	itemRepo repository.OrderItemRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) OrderItemService {
	return &orderItemService{
		itemRepo:    itemRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "orderitem").Logger(),
	}
}

// Create adds a line item to an order.
func (s *orderItemService) Create(ctx context.Context, req *model.OrderItemRequest) (*model.OrderItem, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	var created *model.OrderItem
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.GetByIDForUpdate(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		product, err := s.productRepo.GetByIDForUpdate(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return model.ErrProductNotFound
		}

		if product.QuantityInStock < req.Quantity {
			s.logger.Warn().
				Str("product_id", product.ID.String()).
				Int("in_stock", product.QuantityInStock).
				Int("requested", req.Quantity).
				Msg("insufficient stock")
			return model.ErrInsufficientStock
		}

		now := time.Now()
		item := &model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.itemRepo.Create(ctx, tx, item); err != nil {
			return err
		}
		if err := s.orderRepo.AddToTotal(ctx, tx, order.ID, item.Subtotal()); err != nil {
			return err
		}
		if err := s.productRepo.AdjustStock(ctx, tx, product.ID, -item.Quantity); err != nil {
			return err
		}

		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_item_id", created.ID.String()).
		Str("order_id", created.OrderID.String()).
		Str("product_id", created.ProductID.String()).
		Int("quantity", created.Quantity).
		Msg("order item created")

	return created, nil
}

// Update changes an item's quantity, product or order. Both references are
// re-resolved even when unchanged. The stock check treats the item's current
// reservation as already released: when the product stays the same, the old
// quantity is credited back before comparing against the new quantity.
func (s *orderItemService) Update(ctx context.Context, id uuid.UUID, req *model.OrderItemUpdateRequest) (*model.OrderItem, error) {
	if err := validateUpdateRequest(id, req); err != nil {
		return nil, err
	}

	var updated *model.OrderItem
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		old, err := s.itemRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return model.ErrOrderItemNotFound
		}

		newOrderID := old.OrderID
		if req.OrderID != nil {
			newOrderID = *req.OrderID
		}
		newProductID := old.ProductID
		if req.ProductID != nil {
			newProductID = *req.ProductID
		}
		newQuantity := old.Quantity
		if req.Quantity != nil {
			newQuantity = *req.Quantity
		}

		if _, err := s.lockOrders(ctx, tx, old.OrderID, newOrderID); err != nil {
			return err
		}
		products, err := s.lockProducts(ctx, tx, old.ProductID, newProductID)
		if err != nil {
			return err
		}
		newProduct := products[newProductID]

		available := newProduct.QuantityInStock
		if newProductID == old.ProductID {
			available += old.Quantity
		}
		if available < newQuantity {
			s.logger.Warn().
				Str("product_id", newProduct.ID.String()).
				Int("available", available).
				Int("requested", newQuantity).
				Msg("insufficient stock for update")
			return model.ErrInsufficientStock
		}

		item := *old
		item.OrderID = newOrderID
		item.ProductID = newProductID
		item.Quantity = newQuantity
		item.UnitPrice = newProduct.Price
		item.UpdatedAt = time.Now()

		if err := s.itemRepo.Update(ctx, tx, &item); err != nil {
			return err
		}

		// Attribute the money delta: one net adjustment when the order is
		// unchanged, otherwise a subtraction from the old order and an
		// addition to the new one.
		if newOrderID == old.OrderID {
			if err := s.orderRepo.AddToTotal(ctx, tx, newOrderID, item.Subtotal().Sub(old.Subtotal())); err != nil {
				return err
			}
		} else {
			if err := s.orderRepo.AddToTotal(ctx, tx, old.OrderID, old.Subtotal().Neg()); err != nil {
				return err
			}
			if err := s.orderRepo.AddToTotal(ctx, tx, newOrderID, item.Subtotal()); err != nil {
				return err
			}
		}

		// Same idea for stock: release the old reservation, take the new one.
		if newProductID == old.ProductID {
			if delta := old.Quantity - newQuantity; delta != 0 {
				if err := s.productRepo.AdjustStock(ctx, tx, newProductID, delta); err != nil {
					return err
				}
			}
		} else {
			if err := s.productRepo.AdjustStock(ctx, tx, old.ProductID, old.Quantity); err != nil {
				return err
			}
			if err := s.productRepo.AdjustStock(ctx, tx, newProductID, -newQuantity); err != nil {
				return err
			}
		}

		updated = &item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_item_id", updated.ID.String()).
		Int("quantity", updated.Quantity).
		Msg("order item updated")

	return updated, nil
}

// Delete removes an item, reversing its effects on the order total and the
// product stock.
func (s *orderItemService) Delete(ctx context.Context, id uuid.UUID) (*model.OrderItem, error) {
	var deleted *model.OrderItem
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		item, err := s.itemRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrOrderItemNotFound
		}

		order, err := s.orderRepo.GetByIDForUpdate(ctx, tx, item.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		product, err := s.productRepo.GetByIDForUpdate(ctx, tx, item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return model.ErrProductNotFound
		}

		if err := s.itemRepo.Delete(ctx, tx, item.ID); err != nil {
			return err
		}
		if err := s.orderRepo.AddToTotal(ctx, tx, order.ID, item.Subtotal().Neg()); err != nil {
			return err
		}
		if err := s.productRepo.AdjustStock(ctx, tx, product.ID, item.Quantity); err != nil {
			return err
		}

		deleted = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_item_id", deleted.ID.String()).
		Str("order_id", deleted.OrderID.String()).
		Msg("order item deleted")

	return deleted, nil
}

// GetByID retrieves a single order item by ID.
func (s *orderItemService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderItem, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	if item == nil {
		return nil, model.ErrOrderItemNotFound
	}
	return item, nil
}

// List retrieves order items matching the filter. An empty result reports
// not-found to the caller.
func (s *orderItemService) List(ctx context.Context, filter model.OrderItemFilter, opts model.ListOptions) ([]model.OrderItem, error) {
	items, err := s.itemRepo.List(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	if len(items) == 0 {
		return nil, model.ErrOrderItemNotFound
	}
	return items, nil
}

// ListByOrderID retrieves the items of one order.
func (s *orderItemService) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	items, err := s.itemRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	if len(items) == 0 {
		return nil, model.ErrOrderItemNotFound
	}
	return items, nil
}

// inTx runs fn inside a transaction, retrying bounded times when Postgres
// reports a serialization failure or deadlock.
func (s *orderItemService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		s.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("transaction conflict, retrying")
	}

	s.logger.Error().Err(err).Msg("transaction retries exhausted")
	return model.ErrConflict
}

func (s *orderItemService) runTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.itemRepo.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockOrders acquires FOR UPDATE locks on the given orders in ascending ID
// order and returns them keyed by ID.
func (s *orderItemService) lockOrders(ctx context.Context, tx pgx.Tx, ids ...uuid.UUID) (map[uuid.UUID]*model.Order, error) {
	orders := make(map[uuid.UUID]*model.Order, len(ids))
	for _, id := range sortedUnique(ids) {
		order, err := s.orderRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, model.ErrOrderNotFound
		}
		orders[id] = order
	}
	return orders, nil
}

// lockProducts acquires FOR UPDATE locks on the given products in ascending
// ID order and returns them keyed by ID.
func (s *orderItemService) lockProducts(ctx context.Context, tx pgx.Tx, ids ...uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	products := make(map[uuid.UUID]*model.Product, len(ids))
	for _, id := range sortedUnique(ids) {
		product, err := s.productRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, model.ErrProductNotFound
		}
		products[id] = product
	}
	return products, nil
}

// sortedUnique returns the ids deduplicated and in ascending byte order.
func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		seen := false
		for _, existing := range out {
			if existing == id {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, id)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && bytes.Compare(out[j][:], out[j-1][:]) < 0; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// isRetryableTxError reports whether err is a Postgres serialization failure
// (40001) or deadlock (40P01).
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func validateCreateRequest(req *model.OrderItemRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidInput, "order item request is nil")
	}
	if req.OrderID == uuid.Nil {
		return model.NewDomainError(model.ErrCodeInvalidInput, "orderId is required")
	}
	if req.ProductID == uuid.Nil {
		return model.NewDomainError(model.ErrCodeInvalidInput, "productId is required")
	}
	if req.Quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	return nil
}

func validateUpdateRequest(id uuid.UUID, req *model.OrderItemUpdateRequest) error {
	if id == uuid.Nil {
		return model.NewDomainError(model.ErrCodeInvalidInput, "order item ID is required")
	}
	if req == nil || req.Empty() {
		return model.NewDomainError(model.ErrCodeInvalidInput, "at least one field must be provided")
	}
	if req.OrderID != nil && *req.OrderID == uuid.Nil {
		return model.NewDomainError(model.ErrCodeInvalidInput, "orderId must not be empty")
	}
	if req.ProductID != nil && *req.ProductID == uuid.Nil {
		return model.NewDomainError(model.ErrCodeInvalidInput, "productId must not be empty")
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	return nil
}
