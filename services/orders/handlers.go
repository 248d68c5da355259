package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OrderUseCaseInterface define a interface para o use case
type OrderUseCaseInterface interface {
	Checkout(ctx context.Context, req CreateOrderRequest) (string, string, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	CreateOrder(ctx context.Context, req SagaOrderRequest) error
	CompleteOrder(ctx context.Context, req OrderActionRequest) error
	CancelOrder(ctx context.Context, req OrderActionRequest) error
}

// OrderHandler contém os handlers HTTP
type OrderHandler struct {
	useCase OrderUseCaseInterface
	tracer  trace.Tracer
}

// NewOrderHandler cria uma nova instância de OrderHandler
func NewOrderHandler(useCase OrderUseCaseInterface, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// Checkout inicia uma transação SAGA de checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "checkout_saga")
	defer span.End()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int("items", len(req.Items)),
	)

	orderID, gid, err := h.useCase.Checkout(ctx, req)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("dtm_gid", gid),
	)

	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"saga_gid": gid,
		"message":  "Order SAGA initiated successfully",
	})
}

// GetOrder busca um pedido pelo ID
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.useCase.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found", "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreateOrder registra o pedido pendente (primeiro branch da SAGA)
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req SagaOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "create_order")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", req.OrderID))

	if err := h.useCase.CreateOrder(ctx, req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// CompleteOrder marca o pedido como completado (chamado pelo DTM)
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	var req OrderActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "complete_order")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", req.OrderID))

	if err := h.useCase.CompleteOrder(ctx, req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// CompensateOrder compensa o checkout (marca o pedido como rejeitado)
func (h *OrderHandler) CompensateOrder(c *gin.Context) {
	var req OrderActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "compensate_order")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", req.OrderID))

	if err := h.useCase.CancelOrder(ctx, req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// HealthCheck verifica a saúde do serviço
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "orders-service",
	})
}
