package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter model.OrderFilter, opts model.ListOptions) ([]model.Order, error) {
	args := m.Called(ctx, filter, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *model.Order) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) AddToTotal(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, tx, id, delta)
	return args.Error(0)
}

func newOrderServiceForTest() (*MockOrderRepository, *MockOrderItemRepository, OrderService) {
	orderRepo := new(MockOrderRepository)
	itemRepo := new(MockOrderItemRepository)
	svc := NewOrderService(orderRepo, itemRepo, zerolog.Nop())
	return orderRepo, itemRepo, svc
}

func TestOrderService_Create_StartsWithZeroTotal(t *testing.T) {
	ctx := context.Background()
	orderRepo, _, svc := newOrderServiceForTest()

	req := &model.OrderRequest{
		CustomerName:  "Grace Hopper",
		CustomerEmail: "grace@example.com",
	}

	orderRepo.On("Create", ctx, mock.AnythingOfType("*model.Order")).Return(nil)

	order, err := svc.Create(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.True(t, order.TotalPrice.IsZero())
	assert.Equal(t, "Grace Hopper", order.CustomerName)
	assert.NotEqual(t, uuid.Nil, order.ID)

	orderRepo.AssertExpectations(t)
}

func TestOrderService_Create_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	orderRepo, _, svc := newOrderServiceForTest()

	tests := []struct {
		name string
		req  *model.OrderRequest
	}{
		{
			name: "Nil request",
			req:  nil,
		},
		{
			name: "Empty customer name",
			req:  &model.OrderRequest{CustomerName: "  ", CustomerEmail: "a@b.com"},
		},
		{
			name: "Invalid email",
			req:  &model.OrderRequest{CustomerName: "Grace", CustomerEmail: "not-an-email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := svc.Create(ctx, tt.req)

			require.Error(t, err)
			assert.Nil(t, order)

			var domainErr *model.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, model.ErrCodeInvalidInput, domainErr.Code)
		})
	}

	orderRepo.AssertNotCalled(t, "Create")
}

func TestOrderService_GetByID_IncludesItems(t *testing.T) {
	ctx := context.Background()
	orderRepo, itemRepo, svc := newOrderServiceForTest()

	orderID := uuid.New()
	order := testOrder(orderID)
	items := []model.OrderItem{*testItem(orderID, uuid.New(), 2, "5.00")}

	orderRepo.On("GetByID", ctx, orderID).Return(order, nil)
	itemRepo.On("ListByOrderID", ctx, orderID).Return(items, nil)

	resp, err := svc.GetByID(ctx, orderID)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, orderID, resp.ID)
	assert.Len(t, resp.Items, 1)
}

func TestOrderService_GetByID_NoItemsIsEmptySlice(t *testing.T) {
	ctx := context.Background()
	orderRepo, itemRepo, svc := newOrderServiceForTest()

	orderID := uuid.New()

	orderRepo.On("GetByID", ctx, orderID).Return(testOrder(orderID), nil)
	itemRepo.On("ListByOrderID", ctx, orderID).Return(nil, nil)

	resp, err := svc.GetByID(ctx, orderID)

	require.NoError(t, err)
	require.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	orderRepo, itemRepo, svc := newOrderServiceForTest()

	orderID := uuid.New()
	orderRepo.On("GetByID", ctx, orderID).Return(nil, nil)

	resp, err := svc.GetByID(ctx, orderID)

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderNotFound, err)
	assert.Nil(t, resp)

	itemRepo.AssertNotCalled(t, "ListByOrderID")
}

func TestOrderService_Update_CustomerFieldsOnly(t *testing.T) {
	ctx := context.Background()
	orderRepo, _, svc := newOrderServiceForTest()

	orderID := uuid.New()
	existing := testOrder(orderID)
	existing.TotalPrice = decimal.RequireFromString("123.45")

	newName := "Margaret Hamilton"
	newDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	req := &model.OrderUpdateRequest{CustomerName: &newName, Date: &newDate}

	orderRepo.On("GetByID", ctx, orderID).Return(existing, nil)
	orderRepo.On("Update", ctx, mock.AnythingOfType("*model.Order")).Return(true, nil)

	order, err := svc.Update(ctx, orderID, req)

	require.NoError(t, err)
	assert.Equal(t, "Margaret Hamilton", order.CustomerName)
	assert.Equal(t, newDate, order.Date)
	// the derived total is never replaced through order CRUD
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("123.45")))
}

func TestOrderService_List_EmptyIsNotFound(t *testing.T) {
	ctx := context.Background()
	orderRepo, _, svc := newOrderServiceForTest()

	orderRepo.On("List", ctx, mock.Anything, mock.Anything).Return([]model.Order{}, nil)

	orders, err := svc.List(ctx, model.OrderFilter{}, model.ListOptions{})

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderNotFound, err)
	assert.Nil(t, orders)
}

func TestOrderService_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	orderRepo, _, svc := newOrderServiceForTest()

	orderID := uuid.New()
	orderRepo.On("Delete", ctx, orderID).Return(false, nil)

	err := svc.Delete(ctx, orderID)

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderNotFound, err)
}
