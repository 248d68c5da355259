package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProductUseCaseInterface define a interface para o use case
type ProductUseCaseInterface interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error)
	ListProducts(ctx context.Context) ([]ProductResponse, error)
	ListProductsPage(ctx context.Context, page, size int, sortBy, sortDir string) (*PagedResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error)
	PatchProduct(ctx context.Context, id uuid.UUID, req PatchProductRequest) (*ProductResponse, error)
	SoftDeleteProduct(ctx context.Context, id uuid.UUID) error
	SearchByName(ctx context.Context, name string) ([]ProductResponse, error)
	FilterByPrice(ctx context.Context, min, max float64) ([]ProductResponse, error)
	FilterAvailable(ctx context.Context) ([]ProductResponse, error)
	ValidateStock(ctx context.Context, items []StockLineItem) error
	DeductStock(ctx context.Context, items []StockLineItem, referenceID string) error
	RestoreStock(ctx context.Context, items []StockLineItem, referenceID string) error
}

// ProductHandler contém os handlers HTTP do catálogo
type ProductHandler struct {
	useCase ProductUseCaseInterface
	tracer  trace.Tracer
}

// NewProductHandler cria uma nova instância de ProductHandler
func NewProductHandler(useCase ProductUseCaseInterface, tracer trace.Tracer) *ProductHandler {
	return &ProductHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// respondError mapeia a taxonomia de erros de negócio para status HTTP
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found", "message": err.Error()})
	case errors.Is(err, ErrProductUnavailable), errors.Is(err, ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict", "message": err.Error()})
	case errors.Is(err, ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "message": err.Error()})
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "invalid product id"})
		return uuid.Nil, false
	}
	return id, true
}

// Create cria um novo produto
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": err.Error()})
		return
	}

	response, err := h.useCase.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Update substitui todos os campos mutáveis de um produto
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": err.Error()})
		return
	}

	response, err := h.useCase.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Patch atualiza parcialmente um produto
func (h *ProductHandler) Patch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req PatchProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": err.Error()})
		return
	}

	response, err := h.useCase.PatchProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Delete marca um produto como deletado (soft delete)
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.useCase.SoftDeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Product deleted successfully",
		ID:      id.String(),
	})
}

// List busca todos os produtos ativos
func (h *ProductHandler) List(c *gin.Context) {
	response, err := h.useCase.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get busca um produto pelo ID
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	response, err := h.useCase.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Page busca uma página ordenada de produtos ativos
func (h *ProductHandler) Page(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "invalid page"})
		return
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "invalid size"})
		return
	}

	sortBy := c.DefaultQuery("sortBy", "name")
	sortDir := c.DefaultQuery("sortDir", "asc")

	response, err := h.useCase.ListProductsPage(c.Request.Context(), page, size, sortBy, sortDir)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Search busca produtos por substring do nome
func (h *ProductHandler) Search(c *gin.Context) {
	name := c.Query("name")

	response, err := h.useCase.SearchByName(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// PriceFilter busca produtos dentro de um intervalo de preço
func (h *ProductHandler) PriceFilter(c *gin.Context) {
	min, err := strconv.ParseFloat(c.Query("min"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "invalid min price"})
		return
	}

	max, err := strconv.ParseFloat(c.Query("max"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "invalid max price"})
		return
	}

	response, err := h.useCase.FilterByPrice(c.Request.Context(), min, max)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Availability busca produtos com estoque disponível
func (h *ProductHandler) Availability(c *gin.Context) {
	response, err := h.useCase.FilterAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ProductHandler) bindStockItems(c *gin.Context) ([]StockLineItem, bool) {
	var items []StockLineItem
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": err.Error()})
		return nil, false
	}
	return items, true
}

// ValidateStock verifica a disponibilidade de estoque de um lote de itens
func (h *ProductHandler) ValidateStock(c *gin.Context) {
	items, ok := h.bindStockItems(c)
	if !ok {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "validate_stock")
	defer span.End()
	span.SetAttributes(attribute.Int("stock.items", len(items)))

	if err := h.useCase.ValidateStock(ctx, items); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// DeductStock deduz o estoque de um lote de itens atomicamente.
// O DTM anexa o gid da SAGA como query param nas chamadas de branch;
// ele serve de chave de idempotência para redeliveries.
func (h *ProductHandler) DeductStock(c *gin.Context) {
	items, ok := h.bindStockItems(c)
	if !ok {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "deduct_stock")
	defer span.End()
	span.SetAttributes(attribute.Int("stock.items", len(items)))

	if err := h.useCase.DeductStock(ctx, items, c.Query("gid")); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// RestoreStock devolve estoque de um lote de itens atomicamente
func (h *ProductHandler) RestoreStock(c *gin.Context) {
	items, ok := h.bindStockItems(c)
	if !ok {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "restore_stock")
	defer span.End()
	span.SetAttributes(attribute.Int("stock.items", len(items)))

	if err := h.useCase.RestoreStock(ctx, items, c.Query("gid")); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// HealthCheck é o endpoint de health check
func (h *ProductHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "products-service",
	})
}
