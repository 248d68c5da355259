package main

import (
	"github.com/google/uuid"
)

// CreateProductRequest representa a requisição para criar um produto
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Quantity    int     `json:"quantity" binding:"gte=0"`
}

// UpdateProductRequest representa a requisição de atualização total (PUT)
type UpdateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Quantity    int     `json:"quantity" binding:"gte=0"`
}

// PatchProductRequest representa a requisição de atualização parcial (PATCH).
// Campos nil não são alterados; cada campo presente é validado individualmente.
type PatchProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
}

// StockLineItem representa um item de lote nas operações de estoque
// (validate, deduct e restore compartilham o mesmo formato)
type StockLineItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity"`
}

// ProductResponse representa a visão pública de um produto
type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
}

// PagedResponse representa uma página de produtos
type PagedResponse struct {
	Content       []ProductResponse `json:"content"`
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	TotalElements int64             `json:"total_elements"`
	TotalPages    int               `json:"total_pages"`
	Last          bool              `json:"last"`
}

// DeleteResponse confirma um soft delete
type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func toResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
	}
}

func toResponseList(products []Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, toResponse(&products[i]))
	}
	return responses
}
