package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository define a interface para operações de banco de dados de produtos
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, product *Product) error
	ListActive(ctx context.Context) ([]Product, error)
	ListActivePage(ctx context.Context, page, size int, sortBy, sortDir string) ([]Product, int64, error)
	SearchByName(ctx context.Context, name string) ([]Product, error)
	FilterByPrice(ctx context.Context, min, max float64) ([]Product, error)
	FilterAvailable(ctx context.Context) ([]Product, error)

	BeginTx(ctx context.Context) (Tx, error)
	GetForUpdate(ctx context.Context, tx Tx, id uuid.UUID) (*Product, error)
	HasMovement(ctx context.Context, tx Tx, referenceID, movementType string) (bool, error)
	DeductStock(ctx context.Context, tx Tx, productID uuid.UUID, quantity int, referenceID string) error
	RestoreStock(ctx context.Context, tx Tx, productID uuid.UUID, quantity int, referenceID string) error
}

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// PostgresProductRepository implementa ProductRepository usando PostgreSQL
type PostgresProductRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository cria uma nova instância de PostgresProductRepository
func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &PostgresProductRepository{
		db: db,
	}
}

const productColumns = "id, name, description, price, quantity, deleted, created_at, updated_at"

// sortColumns lista as colunas permitidas para ordenação da listagem paginada
var sortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"quantity":   "quantity",
	"created_at": "created_at",
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Deleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Deleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Create insere um novo produto
func (r *PostgresProductRepository) Create(ctx context.Context, product *Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, description, price, quantity, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, product.ID, product.Name, product.Description, product.Price, product.Quantity,
		product.Deleted, product.CreatedAt, product.UpdatedAt)
	return err
}

// GetByID busca um produto pelo ID (incluindo deletados; o use case decide)
func (r *PostgresProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	product, err := scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, err
	}
	return product, nil
}

// Update persiste todos os campos mutáveis de um produto
func (r *PostgresProductRepository) Update(ctx context.Context, product *Product) error {
	_, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, quantity = $4, deleted = $5, updated_at = NOW()
		WHERE id = $6
	`, product.Name, product.Description, product.Price, product.Quantity, product.Deleted, product.ID)
	return err
}

// ListActive busca todos os produtos não deletados
func (r *PostgresProductRepository) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE deleted = false
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// ListActivePage busca uma página de produtos não deletados com ordenação
func (r *PostgresProductRepository) ListActivePage(ctx context.Context, page, size int, sortBy, sortDir string) ([]Product, int64, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, 0, fmt.Errorf("%w: cannot sort by %q", ErrInvalidArgument, sortBy)
	}

	direction := "ASC"
	if sortDir == "desc" || sortDir == "DESC" {
		direction = "DESC"
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE deleted = false").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE deleted = false
		ORDER BY `+column+` `+direction+`
		LIMIT $1 OFFSET $2
	`, size, page*size)
	if err != nil {
		return nil, 0, err
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// SearchByName busca produtos não deletados cujo nome contém o termo (case-insensitive)
func (r *PostgresProductRepository) SearchByName(ctx context.Context, name string) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE deleted = false AND name ILIKE '%' || $1 || '%'
		ORDER BY name
	`, name)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// FilterByPrice busca produtos não deletados com preço dentro do intervalo
func (r *PostgresProductRepository) FilterByPrice(ctx context.Context, min, max float64) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE deleted = false AND price BETWEEN $1 AND $2
		ORDER BY price
	`, min, max)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// FilterAvailable busca produtos não deletados com estoque disponível
func (r *PostgresProductRepository) FilterAvailable(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE deleted = false AND quantity > 0
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// BeginTx inicia uma nova transação
func (r *PostgresProductRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

// GetForUpdate obtém o produto com lock pessimista (FOR UPDATE)
func (r *PostgresProductRepository) GetForUpdate(ctx context.Context, tx Tx, id uuid.UUID) (*Product, error) {
	pgTx := tx.(*PostgresTx).tx

	product, err := scanProduct(pgTx.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product with lock: %w", err)
	}
	return product, nil
}

// HasMovement verifica se já existe um movimento para a referência e tipo.
// É a checagem de idempotência para redelivery de branches SAGA.
func (r *PostgresProductRepository) HasMovement(ctx context.Context, tx Tx, referenceID, movementType string) (bool, error) {
	pgTx := tx.(*PostgresTx).tx

	var exists bool
	err := pgTx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM stock_movements
			WHERE reference_id = $1 AND movement_type = $2
		)
	`, referenceID, movementType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check movement: %w", err)
	}
	return exists, nil
}

// DeductStock diminui o estoque e registra o movimento
func (r *PostgresProductRepository) DeductStock(ctx context.Context, tx Tx, productID uuid.UUID, quantity int, referenceID string) error {
	return r.adjustStock(ctx, tx, productID, -quantity, quantity, MovementTypeDeducted, referenceID)
}

// RestoreStock aumenta o estoque e registra o movimento
func (r *PostgresProductRepository) RestoreStock(ctx context.Context, tx Tx, productID uuid.UUID, quantity int, referenceID string) error {
	return r.adjustStock(ctx, tx, productID, quantity, quantity, MovementTypeRestored, referenceID)
}

func (r *PostgresProductRepository) adjustStock(ctx context.Context, tx Tx, productID uuid.UUID, delta, quantity int, movementType, referenceID string) error {
	pgTx := tx.(*PostgresTx).tx

	// 1. Atualiza o estoque do produto
	_, err := pgTx.Exec(ctx, `
		UPDATE products
		SET quantity = quantity + $1,
		    updated_at = NOW()
		WHERE id = $2
	`, delta, productID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	// 2. Insere o registro de movimentação
	_, err = pgTx.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, quantity, movement_type, reference_id)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), productID, quantity, movementType, referenceID)
	if err != nil {
		return fmt.Errorf("failed to insert movement record: %w", err)
	}

	return nil
}
