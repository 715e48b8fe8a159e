package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderItemRepository is a mock implementation of OrderItemRepository.
type MockOrderItemRepository struct {
	mock.Mock
}

func (m *MockOrderItemRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderItemRepository) Create(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error {
	args := m.Called(ctx, tx, item)
	return args.Error(0)
}

func (m *MockOrderItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderItem), args.Error(1)
}

func (m *MockOrderItemRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.OrderItem, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderItem), args.Error(1)
}

func (m *MockOrderItemRepository) Update(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error {
	args := m.Called(ctx, tx, item)
	return args.Error(0)
}

func (m *MockOrderItemRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockOrderItemRepository) List(ctx context.Context, filter model.OrderItemFilter, opts model.ListOptions) ([]model.OrderItem, error) {
	args := m.Called(ctx, filter, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

func (m *MockOrderItemRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// decimalEq matches a decimal argument by numeric equality rather than
// internal representation.
func decimalEq(expected string) interface{} {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(want)
	})
}

func testOrder(id uuid.UUID) *model.Order {
	now := time.Now()
	return &model.Order{
		ID:            id,
		Date:          now,
		TotalPrice:    decimal.Zero,
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func testProduct(id uuid.UUID, price string, stock int) *model.Product {
	now := time.Now()
	return &model.Product{
		ID:              id,
		Name:            "Test Product",
		Price:           decimal.RequireFromString(price),
		QuantityInStock: stock,
		CategoryID:      uuid.New(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func testItem(orderID, productID uuid.UUID, quantity int, unitPrice string) *model.OrderItem {
	now := time.Now()
	return &model.OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString(unitPrice),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newEngineForTest() (*MockOrderItemRepository, *MockOrderRepository, *MockProductRepository, *MockTx, OrderItemService) {
	itemRepo := new(MockOrderItemRepository)
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	tx := new(MockTx)
	svc := NewOrderItemService(itemRepo, orderRepo, productRepo, zerolog.Nop())
	return itemRepo, orderRepo, productRepo, tx, svc
}

func TestOrderItemService_Create_Success(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	req := &model.OrderItemRequest{OrderID: orderID, ProductID: productID, Quantity: 5}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "10.00", 20), nil)
	itemRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(nil)
	orderRepo.On("AddToTotal", ctx, tx, orderID, decimalEq("50.00")).Return(nil)
	productRepo.On("AdjustStock", ctx, tx, productID, -5).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	item, err := svc.Create(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, orderID, item.OrderID)
	assert.Equal(t, productID, item.ProductID)
	assert.Equal(t, 5, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("10.00")), "unit price should snapshot the product price")

	itemRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestOrderItemService_Create_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	req := &model.OrderItemRequest{OrderID: orderID, ProductID: productID, Quantity: 5}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "10.00", 3), nil)
	tx.On("Rollback", ctx).Return(nil)

	item, err := svc.Create(ctx, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrInsufficientStock, err)
	assert.Nil(t, item)

	itemRepo.AssertNotCalled(t, "Create")
	orderRepo.AssertNotCalled(t, "AddToTotal")
	productRepo.AssertNotCalled(t, "AdjustStock")
	tx.AssertExpectations(t)
}

func TestOrderItemService_Create_OrderNotFound(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	req := &model.OrderItemRequest{OrderID: orderID, ProductID: uuid.New(), Quantity: 1}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(nil, nil)
	tx.On("Rollback", ctx).Return(nil)

	item, err := svc.Create(ctx, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderNotFound, err)
	assert.Nil(t, item)

	productRepo.AssertNotCalled(t, "GetByIDForUpdate")
	itemRepo.AssertNotCalled(t, "Create")
}

func TestOrderItemService_Create_ProductNotFound(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	req := &model.OrderItemRequest{OrderID: orderID, ProductID: productID, Quantity: 1}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(nil, nil)
	tx.On("Rollback", ctx).Return(nil)

	item, err := svc.Create(ctx, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrProductNotFound, err)
	assert.Nil(t, item)

	itemRepo.AssertNotCalled(t, "Create")
}

func TestOrderItemService_Create_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	itemRepo, _, _, _, svc := newEngineForTest()

	tests := []struct {
		name        string
		req         *model.OrderItemRequest
		expectedErr error
	}{
		{
			name:        "Nil request",
			req:         nil,
			expectedErr: nil,
		},
		{
			name:        "Missing order ID",
			req:         &model.OrderItemRequest{ProductID: uuid.New(), Quantity: 1},
			expectedErr: nil,
		},
		{
			name:        "Missing product ID",
			req:         &model.OrderItemRequest{OrderID: uuid.New(), Quantity: 1},
			expectedErr: nil,
		},
		{
			name:        "Zero quantity",
			req:         &model.OrderItemRequest{OrderID: uuid.New(), ProductID: uuid.New(), Quantity: 0},
			expectedErr: model.ErrInvalidQuantity,
		},
		{
			name:        "Negative quantity",
			req:         &model.OrderItemRequest{OrderID: uuid.New(), ProductID: uuid.New(), Quantity: -3},
			expectedErr: model.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := svc.Create(ctx, tt.req)

			require.Error(t, err)
			assert.Nil(t, item)
			if tt.expectedErr != nil {
				assert.Equal(t, tt.expectedErr, err)
			}
		})
	}

	// Validation failures must be rejected before any store access
	itemRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderItemService_Create_RollbackOnRepositoryError(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	req := &model.OrderItemRequest{OrderID: orderID, ProductID: productID, Quantity: 2}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "4.20", 10), nil)
	itemRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(errors.New("database error"))
	tx.On("Rollback", ctx).Return(nil)

	item, err := svc.Create(ctx, req)

	require.Error(t, err)
	assert.Nil(t, item)

	orderRepo.AssertNotCalled(t, "AddToTotal")
	productRepo.AssertNotCalled(t, "AdjustStock")
	tx.AssertNotCalled(t, "Commit")
	tx.AssertExpectations(t)
}

func TestOrderItemService_Create_RetriesOnSerializationFailure(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	req := &model.OrderItemRequest{OrderID: orderID, ProductID: productID, Quantity: 1}

	serializationErr := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "2.00", 10), nil)
	itemRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(serializationErr).Once()
	itemRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(nil)
	orderRepo.On("AddToTotal", ctx, tx, orderID, decimalEq("2.00")).Return(nil)
	productRepo.On("AdjustStock", ctx, tx, productID, -1).Return(nil)
	tx.On("Rollback", ctx).Return(nil).Once()
	tx.On("Commit", ctx).Return(nil).Once()

	item, err := svc.Create(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, item)

	itemRepo.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestOrderItemService_Create_ConflictAfterRetriesExhausted(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	req := &model.OrderItemRequest{OrderID: orderID, ProductID: productID, Quantity: 1}

	deadlockErr := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "2.00", 10), nil)
	itemRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(deadlockErr)
	tx.On("Rollback", ctx).Return(nil)

	item, err := svc.Create(ctx, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrConflict, err)
	assert.Nil(t, item)

	itemRepo.AssertNumberOfCalls(t, "BeginTx", 3)
	tx.AssertNotCalled(t, "Commit")
}

func TestOrderItemService_Update_QuantityDecrease(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	old := testItem(orderID, productID, 5, "10.00")

	newQuantity := 3
	req := &model.OrderItemUpdateRequest{Quantity: &newQuantity}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, old.ID).Return(old, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "10.00", 15), nil)
	itemRepo.On("Update", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(nil)
	// 3*10.00 - 5*10.00 = -20.00 off the order total
	orderRepo.On("AddToTotal", ctx, tx, orderID, decimalEq("-20.00")).Return(nil)
	// two units come back into stock
	productRepo.On("AdjustStock", ctx, tx, productID, 2).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	item, err := svc.Update(ctx, old.ID, req)

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 3, item.Quantity)

	orderRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestOrderItemService_Update_QuantityIncrease(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	old := testItem(orderID, productID, 5, "10.00")

	newQuantity := 8
	req := &model.OrderItemUpdateRequest{Quantity: &newQuantity}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, old.ID).Return(old, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "10.00", 15), nil)
	itemRepo.On("Update", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(nil)
	// 8*10.00 - 5*10.00 = +30.00 on the order total
	orderRepo.On("AddToTotal", ctx, tx, orderID, decimalEq("30.00")).Return(nil)
	// three more units reserved
	productRepo.On("AdjustStock", ctx, tx, productID, -3).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	item, err := svc.Update(ctx, old.ID, req)

	require.NoError(t, err)
	assert.Equal(t, 8, item.Quantity)

	orderRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
}

func TestOrderItemService_Update_RepricesToCurrentProductPrice(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	// line created when the product cost 10.00; the catalog price has
	// since moved to 12.50
	old := testItem(orderID, productID, 4, "10.00")

	newQuantity := 4
	req := &model.OrderItemUpdateRequest{Quantity: &newQuantity}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, old.ID).Return(old, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "12.50", 10), nil)
	itemRepo.On("Update", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(nil)
	// 4*12.50 - 4*10.00 = +10.00
	orderRepo.On("AddToTotal", ctx, tx, orderID, decimalEq("10.00")).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	item, err := svc.Update(ctx, old.ID, req)

	require.NoError(t, err)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("12.50")))

	// quantity unchanged, so no stock movement
	productRepo.AssertNotCalled(t, "AdjustStock")
	orderRepo.AssertExpectations(t)
}

func TestOrderItemService_Update_MoveToDifferentProduct(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	oldProductID := uuid.New()
	newProductID := uuid.New()
	old := testItem(orderID, oldProductID, 5, "10.00")

	newQuantity := 4
	req := &model.OrderItemUpdateRequest{ProductID: &newProductID, Quantity: &newQuantity}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, old.ID).Return(old, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, oldProductID).Return(testProduct(oldProductID, "10.00", 15), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, newProductID).Return(testProduct(newProductID, "7.00", 6), nil)
	itemRepo.On("Update", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(nil)
	// 4*7.00 - 5*10.00 = -22.00 on the (unchanged) order
	orderRepo.On("AddToTotal", ctx, tx, orderID, decimalEq("-22.00")).Return(nil)
	// old product gets its five back, new product loses four
	productRepo.On("AdjustStock", ctx, tx, oldProductID, 5).Return(nil)
	productRepo.On("AdjustStock", ctx, tx, newProductID, -4).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	item, err := svc.Update(ctx, old.ID, req)

	require.NoError(t, err)
	assert.Equal(t, newProductID, item.ProductID)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("7.00")))

	productRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
}

func TestOrderItemService_Update_MoveToDifferentOrder(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	oldOrderID := uuid.New()
	newOrderID := uuid.New()
	productID := uuid.New()
	old := testItem(oldOrderID, productID, 5, "10.00")

	req := &model.OrderItemUpdateRequest{OrderID: &newOrderID}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, old.ID).Return(old, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, oldOrderID).Return(testOrder(oldOrderID), nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, newOrderID).Return(testOrder(newOrderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "10.00", 15), nil)
	itemRepo.On("Update", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(nil)
	// the contribution moves wholesale from the old order to the new one
	orderRepo.On("AddToTotal", ctx, tx, oldOrderID, decimalEq("-50.00")).Return(nil)
	orderRepo.On("AddToTotal", ctx, tx, newOrderID, decimalEq("50.00")).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	item, err := svc.Update(ctx, old.ID, req)

	require.NoError(t, err)
	assert.Equal(t, newOrderID, item.OrderID)

	// same product, same quantity: stock is untouched
	productRepo.AssertNotCalled(t, "AdjustStock")
	orderRepo.AssertExpectations(t)
}

func TestOrderItemService_Update_StockCheckCreditsOwnReservation(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	old := testItem(orderID, productID, 5, "10.00")

	// Only 2 left on the shelf, but the line already holds 5, so raising
	// to 7 is fine: 2 + 5 >= 7.
	newQuantity := 7
	req := &model.OrderItemUpdateRequest{Quantity: &newQuantity}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, old.ID).Return(old, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "10.00", 2), nil)
	itemRepo.On("Update", ctx, tx, mock.AnythingOfType("*model.OrderItem")).Return(nil)
	orderRepo.On("AddToTotal", ctx, tx, orderID, decimalEq("20.00")).Return(nil)
	productRepo.On("AdjustStock", ctx, tx, productID, -2).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	item, err := svc.Update(ctx, old.ID, req)

	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)
}

func TestOrderItemService_Update_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	old := testItem(orderID, productID, 5, "10.00")

	// 2 on the shelf + 5 already held = 7 available, 8 requested
	newQuantity := 8
	req := &model.OrderItemUpdateRequest{Quantity: &newQuantity}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, old.ID).Return(old, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "10.00", 2), nil)
	tx.On("Rollback", ctx).Return(nil)

	item, err := svc.Update(ctx, old.ID, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrInsufficientStock, err)
	assert.Nil(t, item)

	itemRepo.AssertNotCalled(t, "Update")
	orderRepo.AssertNotCalled(t, "AddToTotal")
}

func TestOrderItemService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	itemRepo, _, _, tx, svc := newEngineForTest()

	id := uuid.New()
	newQuantity := 2
	req := &model.OrderItemUpdateRequest{Quantity: &newQuantity}

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, id).Return(nil, nil)
	tx.On("Rollback", ctx).Return(nil)

	item, err := svc.Update(ctx, id, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderItemNotFound, err)
	assert.Nil(t, item)
}

func TestOrderItemService_Update_EmptyRequest(t *testing.T) {
	ctx := context.Background()
	itemRepo, _, _, _, svc := newEngineForTest()

	item, err := svc.Update(ctx, uuid.New(), &model.OrderItemUpdateRequest{})

	require.Error(t, err)
	assert.Nil(t, item)

	itemRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderItemService_Delete_ReversesEffects(t *testing.T) {
	ctx := context.Background()
	itemRepo, orderRepo, productRepo, tx, svc := newEngineForTest()

	orderID := uuid.New()
	productID := uuid.New()
	item := testItem(orderID, productID, 5, "10.00")

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, item.ID).Return(item, nil)
	orderRepo.On("GetByIDForUpdate", ctx, tx, orderID).Return(testOrder(orderID), nil)
	productRepo.On("GetByIDForUpdate", ctx, tx, productID).Return(testProduct(productID, "10.00", 15), nil)
	itemRepo.On("Delete", ctx, tx, item.ID).Return(nil)
	orderRepo.On("AddToTotal", ctx, tx, orderID, decimalEq("-50.00")).Return(nil)
	productRepo.On("AdjustStock", ctx, tx, productID, 5).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	deleted, err := svc.Delete(ctx, item.ID)

	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, item.ID, deleted.ID)
	assert.Equal(t, 5, deleted.Quantity)

	itemRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestOrderItemService_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	itemRepo, _, _, tx, svc := newEngineForTest()

	id := uuid.New()

	itemRepo.On("BeginTx", ctx).Return(tx, nil)
	itemRepo.On("GetByIDForUpdate", ctx, tx, id).Return(nil, nil)
	tx.On("Rollback", ctx).Return(nil)

	deleted, err := svc.Delete(ctx, id)

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderItemNotFound, err)
	assert.Nil(t, deleted)

	itemRepo.AssertNotCalled(t, "Delete")
}

func TestOrderItemService_GetByID(t *testing.T) {
	ctx := context.Background()
	itemRepo, _, _, _, svc := newEngineForTest()

	item := testItem(uuid.New(), uuid.New(), 2, "3.50")

	itemRepo.On("GetByID", ctx, item.ID).Return(item, nil)

	got, err := svc.GetByID(ctx, item.ID)

	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestOrderItemService_List_EmptyIsNotFound(t *testing.T) {
	ctx := context.Background()
	itemRepo, _, _, _, svc := newEngineForTest()

	itemRepo.On("List", ctx, mock.Anything, mock.Anything).Return([]model.OrderItem{}, nil)

	items, err := svc.List(ctx, model.OrderItemFilter{}, model.ListOptions{})

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderItemNotFound, err)
	assert.Nil(t, items)
}
