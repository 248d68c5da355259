package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel"
)

// MockProductUseCase simula o use case para testes de handler
type MockProductUseCase struct {
	mock.Mock
}

func (m *MockProductUseCase) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductResponse), args.Error(1)
}

func (m *MockProductUseCase) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductResponse), args.Error(1)
}

func (m *MockProductUseCase) ListProducts(ctx context.Context) ([]ProductResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ProductResponse), args.Error(1)
}

func (m *MockProductUseCase) ListProductsPage(ctx context.Context, page, size int, sortBy, sortDir string) (*PagedResponse, error) {
	args := m.Called(ctx, page, size, sortBy, sortDir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PagedResponse), args.Error(1)
}

func (m *MockProductUseCase) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductResponse), args.Error(1)
}

func (m *MockProductUseCase) PatchProduct(ctx context.Context, id uuid.UUID, req PatchProductRequest) (*ProductResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductResponse), args.Error(1)
}

func (m *MockProductUseCase) SoftDeleteProduct(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductUseCase) SearchByName(ctx context.Context, name string) ([]ProductResponse, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ProductResponse), args.Error(1)
}

func (m *MockProductUseCase) FilterByPrice(ctx context.Context, min, max float64) ([]ProductResponse, error) {
	args := m.Called(ctx, min, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ProductResponse), args.Error(1)
}

func (m *MockProductUseCase) FilterAvailable(ctx context.Context) ([]ProductResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ProductResponse), args.Error(1)
}

func (m *MockProductUseCase) ValidateStock(ctx context.Context, items []StockLineItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockProductUseCase) DeductStock(ctx context.Context, items []StockLineItem, referenceID string) error {
	args := m.Called(ctx, items, referenceID)
	return args.Error(0)
}

func (m *MockProductUseCase) RestoreStock(ctx context.Context, items []StockLineItem, referenceID string) error {
	args := m.Called(ctx, items, referenceID)
	return args.Error(0)
}

func setupTestRouter(useCase ProductUseCaseInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewProductHandler(useCase, otel.Tracer("products-service-test"))

	r := gin.New()
	api := r.Group("/api/products")
	api.POST("", handler.Create)
	api.PUT("/:id", handler.Update)
	api.PATCH("/:id", handler.Patch)
	api.DELETE("/:id", handler.Delete)
	api.GET("", handler.List)
	api.GET("/:id", handler.Get)
	api.GET("/page", handler.Page)
	api.GET("/search", handler.Search)
	api.GET("/filter/price", handler.PriceFilter)
	api.GET("/filter/available", handler.Availability)
	api.POST("/validate-stock", handler.ValidateStock)
	api.POST("/deduct-stock", handler.DeductStock)
	api.POST("/restore-stock", handler.RestoreStock)
	return r
}

func performJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetHandler_NotFound(t *testing.T) {
	// Arrange
	mockUC := new(MockProductUseCase)
	id := uuid.New()
	mockUC.On("GetProduct", mock.Anything, id).Return(nil, fmt.Errorf("%w: %s", ErrProductNotFound, id))
	r := setupTestRouter(mockUC)

	// Act
	w := performJSON(r, http.MethodGet, "/api/products/"+id.String(), nil)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not Found")
	mockUC.AssertExpectations(t)
}

func TestGetHandler_InvalidID(t *testing.T) {
	mockUC := new(MockProductUseCase)
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodGet, "/api/products/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUC.AssertNotCalled(t, "GetProduct")
}

func TestCreateHandler_BindingValidation(t *testing.T) {
	mockUC := new(MockProductUseCase)
	r := setupTestRouter(mockUC)

	// price <= 0 deve falhar no binding antes do use case
	w := performJSON(r, http.MethodPost, "/api/products", gin.H{
		"name": "Mouse", "description": "Wireless", "price": 0, "quantity": 3,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUC.AssertNotCalled(t, "CreateProduct")
}

func TestCreateHandler_Success(t *testing.T) {
	mockUC := new(MockProductUseCase)
	response := &ProductResponse{ID: uuid.New(), Name: "Mouse", Description: "Wireless", Price: 30, Quantity: 3}
	mockUC.On("CreateProduct", mock.Anything, CreateProductRequest{
		Name: "Mouse", Description: "Wireless", Price: 30, Quantity: 3,
	}).Return(response, nil)
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodPost, "/api/products", gin.H{
		"name": "Mouse", "description": "Wireless", "price": 30, "quantity": 3,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), response.ID.String())
	mockUC.AssertExpectations(t)
}

func TestValidateStockHandler_Conflict(t *testing.T) {
	mockUC := new(MockProductUseCase)
	items := []StockLineItem{{ProductID: uuid.New(), Quantity: 7}}
	mockUC.On("ValidateStock", mock.Anything, items).
		Return(fmt.Errorf("%w for product Mouse. Available: 2, Required: 7", ErrInsufficientStock))
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodPost, "/api/products/validate-stock", items)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient stock")
	mockUC.AssertExpectations(t)
}

func TestDeductStockHandler_Success(t *testing.T) {
	mockUC := new(MockProductUseCase)
	items := []StockLineItem{{ProductID: uuid.New(), Quantity: 2}}
	mockUC.On("DeductStock", mock.Anything, items, "").Return(nil)
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodPost, "/api/products/deduct-stock", items)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
	mockUC.AssertExpectations(t)
}

func TestDeductStockHandler_ForwardsGid(t *testing.T) {
	// O gid que o DTM anexa na query chega ao use case como referência
	mockUC := new(MockProductUseCase)
	items := []StockLineItem{{ProductID: uuid.New(), Quantity: 2}}
	mockUC.On("DeductStock", mock.Anything, items, "gid-abc").Return(nil)
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodPost, "/api/products/deduct-stock?gid=gid-abc", items)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUC.AssertExpectations(t)
}

func TestRestoreStockHandler_NotFound(t *testing.T) {
	mockUC := new(MockProductUseCase)
	items := []StockLineItem{{ProductID: uuid.New(), Quantity: 2}}
	mockUC.On("RestoreStock", mock.Anything, items, "").
		Return(fmt.Errorf("%w: %s", ErrProductNotFound, items[0].ProductID))
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodPost, "/api/products/restore-stock", items)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockUC.AssertExpectations(t)
}

func TestPatchHandler_InvalidArgument(t *testing.T) {
	mockUC := new(MockProductUseCase)
	id := uuid.New()
	mockUC.On("PatchProduct", mock.Anything, id, mock.Anything).
		Return(nil, fmt.Errorf("%w: no valid fields provided to update", ErrInvalidArgument))
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodPatch, "/api/products/"+id.String(), gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no valid fields")
	mockUC.AssertExpectations(t)
}

func TestPageHandler_Defaults(t *testing.T) {
	mockUC := new(MockProductUseCase)
	mockUC.On("ListProductsPage", mock.Anything, 0, 10, "name", "asc").
		Return(&PagedResponse{Content: []ProductResponse{}, Size: 10, Last: true}, nil)
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodGet, "/api/products/page", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUC.AssertExpectations(t)
}

func TestPriceFilterHandler_MissingParams(t *testing.T) {
	mockUC := new(MockProductUseCase)
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodGet, "/api/products/filter/price?min=10", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUC.AssertNotCalled(t, "FilterByPrice")
}

func TestDeleteHandler_Success(t *testing.T) {
	mockUC := new(MockProductUseCase)
	id := uuid.New()
	mockUC.On("SoftDeleteProduct", mock.Anything, id).Return(nil)
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodDelete, "/api/products/"+id.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Product deleted successfully")
	mockUC.AssertExpectations(t)
}

func TestListHandler_InternalError(t *testing.T) {
	mockUC := new(MockProductUseCase)
	mockUC.On("ListProducts", mock.Anything).Return(nil, assert.AnError)
	r := setupTestRouter(mockUC)

	w := performJSON(r, http.MethodGet, "/api/products", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockUC.AssertExpectations(t)
}
