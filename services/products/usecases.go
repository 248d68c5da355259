package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// ProductUseCase contém a lógica de negócio do catálogo e do estoque
type ProductUseCase struct {
	repository ProductRepository
	cache      ProductCache

	stockDeductions metric.Int64Counter
	stockRestores   metric.Int64Counter
}

// NewProductUseCase cria uma nova instância de ProductUseCase
func NewProductUseCase(repository ProductRepository, cache ProductCache) *ProductUseCase {
	meter := otel.Meter("products-service")

	deductions, err := meter.Int64Counter("stock.deductions")
	if err != nil {
		log.Printf("⚠️ Failed to create stock.deductions counter: %v", err)
	}
	restores, err := meter.Int64Counter("stock.restores")
	if err != nil {
		log.Printf("⚠️ Failed to create stock.restores counter: %v", err)
	}

	return &ProductUseCase{
		repository:      repository,
		cache:           cache,
		stockDeductions: deductions,
		stockRestores:   restores,
	}
}

// cacheGet tenta uma leitura do cache; falhas de cache nunca falham a requisição
func (uc *ProductUseCase) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	hit, err := uc.cache.Get(ctx, key, dest)
	if err != nil {
		log.Printf("⚠️ [CACHE] Get failed for key=%s: %v", key, err)
		return false
	}
	return hit
}

func (uc *ProductUseCase) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := uc.cache.Set(ctx, key, value); err != nil {
		log.Printf("⚠️ [CACHE] Set failed for key=%s: %v", key, err)
	}
}

// invalidateCache descarta todas as entradas; toda mutação do catálogo passa por aqui
func (uc *ProductUseCase) invalidateCache(ctx context.Context) {
	if err := uc.cache.InvalidateAll(ctx); err != nil {
		log.Printf("⚠️ [CACHE] InvalidateAll failed: %v", err)
	}
}

// CreateProduct cria um novo produto no catálogo
func (uc *ProductUseCase) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	log.Printf("➡️ [CREATE PRODUCT] Name: %s", req.Name)

	product := NewProduct(req.Name, req.Description, req.Price, req.Quantity)
	if err := uc.repository.Create(ctx, product); err != nil {
		log.Printf("❌ Failed to create product: %v", err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	uc.invalidateCache(ctx)

	log.Printf("✅ Product created: %s", product.ID)
	response := toResponse(product)
	return &response, nil
}

// GetProduct busca um produto pelo ID. Produtos deletados permanecem
// endereçáveis no banco mas respondem 404 aqui, como no restante do catálogo.
func (uc *ProductUseCase) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	cacheKey := "product:" + id.String()

	var cached ProductResponse
	if uc.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	product, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if product.Deleted {
		log.Printf("⚠️ Product %s is deleted", id)
		return nil, fmt.Errorf("%w: product %s is not available", ErrProductNotFound, id)
	}

	response := toResponse(product)
	uc.cacheSet(ctx, cacheKey, response)
	return &response, nil
}

// ListProducts busca todos os produtos ativos (não deletados)
func (uc *ProductUseCase) ListProducts(ctx context.Context) ([]ProductResponse, error) {
	products, err := uc.repository.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return toResponseList(products), nil
}

// ListProductsPage busca uma página ordenada de produtos ativos
func (uc *ProductUseCase) ListProductsPage(ctx context.Context, page, size int, sortBy, sortDir string) (*PagedResponse, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: page size must be at least 1", ErrInvalidArgument)
	}

	cacheKey := fmt.Sprintf("page:%d:%d:%s:%s", page, size, sortBy, sortDir)

	var cached PagedResponse
	if uc.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	products, total, err := uc.repository.ListActivePage(ctx, page, size, sortBy, sortDir)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / size
	if int(total)%size != 0 {
		totalPages++
	}

	response := PagedResponse{
		Content:       toResponseList(products),
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          page >= totalPages-1,
	}

	uc.cacheSet(ctx, cacheKey, response)
	return &response, nil
}

// UpdateProduct substitui todos os campos mutáveis de um produto (PUT)
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	log.Printf("➡️ [UPDATE PRODUCT] ID: %s", id)

	product, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Quantity = req.Quantity

	if err := uc.repository.Update(ctx, product); err != nil {
		log.Printf("❌ Failed to update product %s: %v", id, err)
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	uc.invalidateCache(ctx)

	log.Printf("✅ Product updated: %s", id)
	response := toResponse(product)
	return &response, nil
}

// PatchProduct atualiza apenas os campos presentes na requisição.
// Cada campo fornecido é validado; qualquer falha descarta a requisição inteira.
func (uc *ProductUseCase) PatchProduct(ctx context.Context, id uuid.UUID, req PatchProductRequest) (*ProductResponse, error) {
	log.Printf("➡️ [PATCH PRODUCT] ID: %s", id)

	product, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := false

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be blank", ErrInvalidArgument)
		}
		product.Name = *req.Name
		updated = true
	}

	if req.Description != nil {
		if *req.Description == "" {
			return nil, fmt.Errorf("%w: description cannot be blank", ErrInvalidArgument)
		}
		product.Description = *req.Description
		updated = true
	}

	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be greater than 0", ErrInvalidArgument)
		}
		product.Price = *req.Price
		updated = true
	}

	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidArgument)
		}
		product.Quantity = *req.Quantity
		updated = true
	}

	if !updated {
		return nil, fmt.Errorf("%w: no valid fields provided to update", ErrInvalidArgument)
	}

	if err := uc.repository.Update(ctx, product); err != nil {
		log.Printf("❌ Failed to patch product %s: %v", id, err)
		return nil, fmt.Errorf("failed to patch product: %w", err)
	}

	uc.invalidateCache(ctx)

	log.Printf("✅ Product patched: %s", id)
	response := toResponse(product)
	return &response, nil
}

// SoftDeleteProduct marca um produto como deletado sem removê-lo fisicamente
func (uc *ProductUseCase) SoftDeleteProduct(ctx context.Context, id uuid.UUID) error {
	log.Printf("➡️ [SOFT DELETE] ID: %s", id)

	product, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return err
	}

	product.Deleted = true
	if err := uc.repository.Update(ctx, product); err != nil {
		log.Printf("❌ Failed to soft delete product %s: %v", id, err)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	uc.invalidateCache(ctx)

	log.Printf("✅ Product soft deleted: %s", id)
	return nil
}

// SearchByName busca produtos ativos por substring do nome
func (uc *ProductUseCase) SearchByName(ctx context.Context, name string) ([]ProductResponse, error) {
	cacheKey := "search:" + name

	var cached []ProductResponse
	if uc.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	products, err := uc.repository.SearchByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	response := toResponseList(products)
	uc.cacheSet(ctx, cacheKey, response)
	return response, nil
}

// FilterByPrice busca produtos ativos com preço dentro do intervalo
func (uc *ProductUseCase) FilterByPrice(ctx context.Context, min, max float64) ([]ProductResponse, error) {
	cacheKey := fmt.Sprintf("price:%v:%v", min, max)

	var cached []ProductResponse
	if uc.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	products, err := uc.repository.FilterByPrice(ctx, min, max)
	if err != nil {
		return nil, fmt.Errorf("failed to filter products by price: %w", err)
	}

	response := toResponseList(products)
	uc.cacheSet(ctx, cacheKey, response)
	return response, nil
}

// FilterAvailable busca produtos ativos com quantidade em estoque
func (uc *ProductUseCase) FilterAvailable(ctx context.Context) ([]ProductResponse, error) {
	cacheKey := "available"

	var cached []ProductResponse
	if uc.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	products, err := uc.repository.FilterAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to filter available products: %w", err)
	}

	response := toResponseList(products)
	uc.cacheSet(ctx, cacheKey, response)
	return response, nil
}

// ValidateStock verifica a disponibilidade de estoque de um lote de itens.
// Leitura pura: nunca muta estado e para no primeiro item que falhar.
func (uc *ProductUseCase) ValidateStock(ctx context.Context, items []StockLineItem) error {
	log.Printf("➡️ [VALIDATE STOCK] %d items", len(items))

	for _, item := range items {
		product, err := uc.repository.GetByID(ctx, item.ProductID)
		if err != nil {
			log.Printf("❌ VALIDATE FAILED: ProductID=%s | Error=%v", item.ProductID, err)
			return err
		}

		if product.Deleted {
			log.Printf("❌ VALIDATE FAILED: Product %s is deleted", product.ID)
			return fmt.Errorf("%w: %s", ErrProductUnavailable, product.ID)
		}

		if product.Quantity < item.Quantity {
			log.Printf("❌ VALIDATE FAILED: Insufficient stock | ProductID=%s Available=%d Requested=%d",
				product.ID, product.Quantity, item.Quantity)
			return fmt.Errorf("%w for product %s. Available: %d, Required: %d",
				ErrInsufficientStock, product.Name, product.Quantity, item.Quantity)
		}
	}

	log.Printf("✅ Stock validation successful")
	return nil
}

// alreadyProcessed verifica dentro da transação se a referência já gerou um
// movimento deste tipo. Branches SAGA são entregues at-least-once pelo DTM;
// a redelivery encontra o movimento e vira no-op.
func (uc *ProductUseCase) alreadyProcessed(ctx context.Context, tx Tx, referenceID, movementType string) (bool, error) {
	if referenceID == "" {
		return false, nil
	}
	exists, err := uc.repository.HasMovement(ctx, tx, referenceID, movementType)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if exists {
		log.Printf("ℹ️ [IDEMPOTENCY] %s already processed for reference %s", movementType, referenceID)
	}
	return exists, nil
}

// DeductStock deduz o estoque de um lote de itens em uma única transação.
// Cada linha é obtida com lock pessimista e rechecada antes da escrita;
// qualquer falha desfaz o lote inteiro.
func (uc *ProductUseCase) DeductStock(ctx context.Context, items []StockLineItem, referenceID string) error {
	log.Printf("➡️ [DEDUCT STOCK] %d items | Reference: %s", len(items), referenceID)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if done, err := uc.alreadyProcessed(ctx, tx, referenceID, MovementTypeDeducted); err != nil {
		return err
	} else if done {
		return nil
	}

	for _, item := range items {
		product, err := uc.repository.GetForUpdate(ctx, tx, item.ProductID)
		if err != nil {
			log.Printf("❌ DEDUCT FAILED: GetForUpdate | ProductID=%s | Error=%v", item.ProductID, err)
			return err
		}

		if product.Quantity < item.Quantity {
			log.Printf("❌ DEDUCT FAILED: Insufficient stock | ProductID=%s Available=%d Requested=%d",
				product.ID, product.Quantity, item.Quantity)
			return fmt.Errorf("%w to deduct for product %s. Available: %d, Required: %d",
				ErrInsufficientStock, product.Name, product.Quantity, item.Quantity)
		}

		if err := uc.repository.DeductStock(ctx, tx, item.ProductID, item.Quantity, referenceID); err != nil {
			log.Printf("❌ DEDUCT FAILED: ProductID=%s | Error=%v", item.ProductID, err)
			return err
		}

		log.Printf("✅ Stock deducted: ProductID=%s Remaining=%d", product.ID, product.Quantity-item.Quantity)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stock deduction: %w", err)
	}

	if uc.stockDeductions != nil {
		uc.stockDeductions.Add(ctx, int64(len(items)))
	}

	log.Printf("✅ Stock deduction completed")
	return nil
}

// RestoreStock devolve estoque de um lote de itens em uma única transação.
// Não há limite superior de quantidade.
func (uc *ProductUseCase) RestoreStock(ctx context.Context, items []StockLineItem, referenceID string) error {
	log.Printf("↩️ [RESTORE STOCK] %d items | Reference: %s", len(items), referenceID)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if done, err := uc.alreadyProcessed(ctx, tx, referenceID, MovementTypeRestored); err != nil {
		return err
	} else if done {
		return nil
	}

	for _, item := range items {
		if _, err := uc.repository.GetForUpdate(ctx, tx, item.ProductID); err != nil {
			log.Printf("❌ RESTORE FAILED: GetForUpdate | ProductID=%s | Error=%v", item.ProductID, err)
			return err
		}

		if err := uc.repository.RestoreStock(ctx, tx, item.ProductID, item.Quantity, referenceID); err != nil {
			log.Printf("❌ RESTORE FAILED: ProductID=%s | Error=%v", item.ProductID, err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stock restore: %w", err)
	}

	if uc.stockRestores != nil {
		uc.stockRestores.Add(ctx, int64(len(items)))
	}

	log.Printf("✅ Stock restore completed")
	return nil
}
