package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")

// Repository define a interface para operações de banco de dados de pedidos
type Repository interface {
	// CreateOrder cria um novo pedido no banco de dados
	CreateOrder(ctx context.Context, order *Order) error

	// UpdateOrderStatus atualiza o status de um pedido (idempotente)
	UpdateOrderStatus(ctx context.Context, orderID string, status string) error

	// GetOrder busca um pedido pelo ID
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

// OrderRepository implementa Repository usando PostgreSQL via database/sql
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository cria uma nova instância de OrderRepository
func NewOrderRepository(db *sql.DB) Repository {
	return &OrderRepository{
		db: db,
	}
}

// CreateOrder cria um novo pedido no banco de dados
func (r *OrderRepository) CreateOrder(ctx context.Context, order *Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, items, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, order.ID, order.UserID, items, order.Status, order.CreatedAt, order.UpdatedAt)
	return err
}

// UpdateOrderStatus atualiza o status de um pedido
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status != $1
	`, status, orderID)
	return err
}

// GetOrder busca um pedido pelo ID
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	var items []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, items, status, created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&order.ID, &order.UserID, &items, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	return &order, nil
}
