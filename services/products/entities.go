package main

import (
	"time"

	"github.com/google/uuid"
)

// Product representa um produto do catálogo com seu estoque
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Deleted     bool      `json:"deleted" db:"deleted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product
func NewProduct(name, description string, price float64, quantity int) *Product {
	return &Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Price:       price,
		Quantity:    quantity,
		Deleted:     false,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// StockMovement representa uma movimentação de estoque de um produto.
// ReferenceID carrega o gid da SAGA que originou o movimento (vazio para
// chamadas diretas) e é a chave da checagem de idempotência.
type StockMovement struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ProductID    uuid.UUID `json:"product_id" db:"product_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	MovementType string    `json:"movement_type" db:"movement_type"`
	ReferenceID  string    `json:"reference_id" db:"reference_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MovementType representa os tipos de movimentação de estoque
const (
	MovementTypeDeducted = "deducted"
	MovementTypeRestored = "restored"
)
