package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// CreateOrderRequest representa a requisição para criar um pedido
type CreateOrderRequest struct {
	UserID string          `json:"user_id" binding:"required"`
	Items  []OrderLineItem `json:"items" binding:"required,min=1,dive"`
}

// OrderActionRequest representa as ações SAGA sobre o próprio pedido
type OrderActionRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// SagaOrderRequest carrega o pedido inteiro pelo branch de criação da SAGA
type SagaOrderRequest struct {
	OrderID string          `json:"order_id" binding:"required"`
	UserID  string          `json:"user_id" binding:"required"`
	Items   []OrderLineItem `json:"items" binding:"required,min=1,dive"`
}

// OrderUseCase contém a lógica de negócio dos pedidos
type OrderUseCase struct {
	repository       Repository
	stockGateway     StockGateway
	sagaOrchestrator SagaOrchestrator
}

// NewOrderUseCase cria uma nova instância de OrderUseCase
func NewOrderUseCase(
	repository Repository,
	stockGateway StockGateway,
	sagaOrchestrator SagaOrchestrator,
) *OrderUseCase {
	return &OrderUseCase{
		repository:       repository,
		stockGateway:     stockGateway,
		sagaOrchestrator: sagaOrchestrator,
	}
}

// Checkout executa o fluxo em duas fases contra o products-service:
// valida a disponibilidade do carrinho inteiro e delega ao DTM a criação
// do pedido, a dedução do lote e a conclusão, cada uma com sua compensação
func (uc *OrderUseCase) Checkout(ctx context.Context, req CreateOrderRequest) (string, string, error) {
	log.Printf("➡️ [CHECKOUT] UserID: %s | %d items", req.UserID, len(req.Items))

	// Fase 1: checagem de disponibilidade, sem reserva
	if err := uc.stockGateway.ValidateStock(ctx, req.Items); err != nil {
		log.Printf("❌ Checkout validation failed: %v", err)
		return "", "", err
	}

	// Fase 2: a SAGA cria o pedido, deduz o lote e conclui; qualquer falha
	// de branch compensa as anteriores e o pedido termina rejeitado
	order := NewOrder(uuid.New().String(), req.UserID, req.Items)
	gid, err := uc.sagaOrchestrator.SubmitCheckoutSaga(ctx, order)
	if err != nil {
		// Falha antes do submit: nenhum branch rodou, o pedido é
		// registrado diretamente como rejeitado
		if failErr := uc.recordRejected(ctx, order); failErr != nil {
			log.Printf("❌ Failed to record rejected order %s: %v", order.ID, failErr)
		}
		return order.ID, gid, fmt.Errorf("checkout saga failed: %w", err)
	}

	log.Printf("✅ Checkout SAGA initiated: OrderID=%s GID=%s", order.ID, gid)
	return order.ID, gid, nil
}

func (uc *OrderUseCase) recordRejected(ctx context.Context, order *Order) error {
	if err := order.Fail(); err != nil {
		return err
	}
	return uc.repository.CreateOrder(ctx, order)
}

// CreateOrder registra o pedido pendente (primeiro branch da SAGA).
// Redeliveries encontram o pedido já criado e respondem sucesso.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, req SagaOrderRequest) error {
	log.Printf("➡️ [CREATE ORDER] OrderID: %s | UserID: %s", req.OrderID, req.UserID)

	if _, err := uc.repository.GetOrder(ctx, req.OrderID); err == nil {
		log.Printf("ℹ️ [IDEMPOTENCY] Order %s already created", req.OrderID)
		return nil
	} else if !errors.Is(err, ErrOrderNotFound) {
		return fmt.Errorf("failed to check order: %w", err)
	}

	order := NewOrder(req.OrderID, req.UserID, req.Items)
	if err := uc.repository.CreateOrder(ctx, order); err != nil {
		log.Printf("❌ Failed to create order: %v", err)
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrder busca um pedido pelo ID
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return uc.repository.GetOrder(ctx, orderID)
}

// CompleteOrder marca o pedido como completado (ação SAGA)
func (uc *OrderUseCase) CompleteOrder(ctx context.Context, req OrderActionRequest) error {
	log.Printf("✅ [COMPLETE ORDER] OrderID: %s", req.OrderID)

	err := uc.repository.UpdateOrderStatus(ctx, req.OrderID, OrderStatusCompleted)
	if err != nil {
		log.Printf("❌ Failed to complete order: %v", err)
		return fmt.Errorf("failed to complete order: %w", err)
	}
	return nil
}

// CancelOrder marca o pedido como rejeitado (compensação SAGA)
func (uc *OrderUseCase) CancelOrder(ctx context.Context, req OrderActionRequest) error {
	log.Printf("↩️ [COMPENSATE ORDER] OrderID: %s", req.OrderID)

	err := uc.repository.UpdateOrderStatus(ctx, req.OrderID, OrderStatusRejected)
	if err != nil {
		log.Printf("❌ Failed to compensate order: %v", err)
		return fmt.Errorf("failed to compensate order: %w", err)
	}
	return nil
}
