package main

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRepository simula o Repository para os testes de use case
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrder(ctx context.Context, order *Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockRepository) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

// MockStockGateway simula o StockGateway
type MockStockGateway struct {
	mock.Mock
}

func (m *MockStockGateway) ValidateStock(ctx context.Context, items []OrderLineItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

// MockSagaOrchestrator simula o SagaOrchestrator
type MockSagaOrchestrator struct {
	mock.Mock
}

func (m *MockSagaOrchestrator) SubmitCheckoutSaga(ctx context.Context, order *Order) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

func TestCheckout_Success(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	mockGateway := new(MockStockGateway)
	mockSaga := new(MockSagaOrchestrator)
	useCase := NewOrderUseCase(mockRepo, mockGateway, mockSaga)
	ctx := context.Background()

	req := CreateOrderRequest{
		UserID: "user-456",
		Items: []OrderLineItem{
			{ProductID: uuid.New(), Quantity: 3},
		},
	}

	mockGateway.On("ValidateStock", ctx, req.Items).Return(nil)
	mockSaga.On("SubmitCheckoutSaga", ctx, mock.AnythingOfType("*main.Order")).Return("gid-123", nil)

	// Act
	orderID, gid, err := useCase.Checkout(ctx, req)

	// Assert
	assert.NoError(t, err)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, "gid-123", gid)
	// A criação do pedido é o primeiro branch da SAGA, não do checkout
	mockRepo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	mockGateway.AssertExpectations(t)
	mockSaga.AssertExpectations(t)
}

func TestCheckout_ValidationFailure(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	mockGateway := new(MockStockGateway)
	mockSaga := new(MockSagaOrchestrator)
	useCase := NewOrderUseCase(mockRepo, mockGateway, mockSaga)
	ctx := context.Background()

	req := CreateOrderRequest{
		UserID: "user-456",
		Items: []OrderLineItem{
			{ProductID: uuid.New(), Quantity: 100},
		},
	}

	mockGateway.On("ValidateStock", ctx, req.Items).Return(errors.New("stock validation rejected"))

	// Act
	orderID, gid, err := useCase.Checkout(ctx, req)

	// Assert
	assert.Error(t, err)
	assert.Empty(t, orderID)
	assert.Empty(t, gid)
	// Nenhum pedido deve ser criado quando a validação falha
	mockRepo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	mockSaga.AssertNotCalled(t, "SubmitCheckoutSaga", mock.Anything, mock.Anything)
	mockGateway.AssertExpectations(t)
}

func TestCheckout_SagaFailureRejectsOrder(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	mockGateway := new(MockStockGateway)
	mockSaga := new(MockSagaOrchestrator)
	useCase := NewOrderUseCase(mockRepo, mockGateway, mockSaga)
	ctx := context.Background()

	req := CreateOrderRequest{
		UserID: "user-456",
		Items: []OrderLineItem{
			{ProductID: uuid.New(), Quantity: 3},
		},
	}

	mockGateway.On("ValidateStock", ctx, req.Items).Return(nil)
	mockSaga.On("SubmitCheckoutSaga", ctx, mock.AnythingOfType("*main.Order")).
		Return("", errors.New("dtm unavailable"))

	var recorded *Order
	mockRepo.On("CreateOrder", ctx, mock.AnythingOfType("*main.Order")).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*Order)
		}).Return(nil)

	// Act
	orderID, _, err := useCase.Checkout(ctx, req)

	// Assert: nenhum branch rodou, o pedido é registrado como rejeitado
	assert.Error(t, err)
	assert.NotEmpty(t, orderID)
	assert.NotNil(t, recorded)
	assert.Equal(t, orderID, recorded.ID)
	assert.Equal(t, OrderStatusRejected, recorded.Status)
	mockRepo.AssertExpectations(t)
}

func TestCreateOrder_SagaBranch(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	useCase := NewOrderUseCase(mockRepo, new(MockStockGateway), new(MockSagaOrchestrator))
	ctx := context.Background()
	req := SagaOrderRequest{
		OrderID: "test-order-123",
		UserID:  "user-456",
		Items:   []OrderLineItem{{ProductID: uuid.New(), Quantity: 1}},
	}

	mockRepo.On("GetOrder", ctx, req.OrderID).Return(nil, ErrOrderNotFound)
	mockRepo.On("CreateOrder", ctx, mock.AnythingOfType("*main.Order")).Return(nil)

	// Act
	err := useCase.CreateOrder(ctx, req)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreateOrder_RedeliveryIsNoOp(t *testing.T) {
	// Arrange: o DTM reentrega o branch de criação
	mockRepo := new(MockRepository)
	useCase := NewOrderUseCase(mockRepo, new(MockStockGateway), new(MockSagaOrchestrator))
	ctx := context.Background()
	req := SagaOrderRequest{
		OrderID: "test-order-123",
		UserID:  "user-456",
		Items:   []OrderLineItem{{ProductID: uuid.New(), Quantity: 1}},
	}
	existing := NewOrder(req.OrderID, req.UserID, req.Items)

	mockRepo.On("GetOrder", ctx, req.OrderID).Return(existing, nil)

	// Act
	err := useCase.CreateOrder(ctx, req)

	// Assert: sucesso sem criar de novo
	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestCompleteOrder(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	useCase := NewOrderUseCase(mockRepo, new(MockStockGateway), new(MockSagaOrchestrator))
	ctx := context.Background()
	req := OrderActionRequest{OrderID: "test-order-123"}

	mockRepo.On("UpdateOrderStatus", ctx, req.OrderID, OrderStatusCompleted).Return(nil)

	// Act
	err := useCase.CompleteOrder(ctx, req)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCancelOrder(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	useCase := NewOrderUseCase(mockRepo, new(MockStockGateway), new(MockSagaOrchestrator))
	ctx := context.Background()
	req := OrderActionRequest{OrderID: "test-order-123"}

	mockRepo.On("UpdateOrderStatus", ctx, req.OrderID, OrderStatusRejected).Return(nil)

	// Act
	err := useCase.CancelOrder(ctx, req)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestGetOrder_NotFound(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	useCase := NewOrderUseCase(mockRepo, new(MockStockGateway), new(MockSagaOrchestrator))
	ctx := context.Background()

	mockRepo.On("GetOrder", ctx, "missing").Return(nil, ErrOrderNotFound)

	// Act
	order, err := useCase.GetOrder(ctx, "missing")

	// Assert
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	mockRepo.AssertExpectations(t)
}
