package main

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// OrderLineItem representa um item do pedido; o formato de product_id/quantity
// é o mesmo aceito pelos endpoints de estoque do products-service
type OrderLineItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// Order representa um pedido no sistema
type Order struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Items     []OrderLineItem `json:"items" db:"items"`
	Status    string          `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// NewOrder cria uma nova instância de Order
func NewOrder(id, userID string, items []OrderLineItem) *Order {
	return &Order{
		ID:        id,
		UserID:    userID,
		Items:     items,
		Status:    OrderStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (o *Order) Fail() error {
	if o.Status != OrderStatusPending {
		return errors.New("only pending orders can be marked as failed")
	}

	o.Status = OrderStatusRejected
	return nil
}

// OrderStatus representa os possíveis status de um pedido
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusRejected  = "rejected"
)
