package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturabodega-api/internal/domain"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productSelect = `
	SELECT p.id, p.name, p.description, p.unit_price, s.quantity, p.created_at, p.updated_at
	FROM products p LEFT JOIN product_stocks s ON s.product_id = p.id`

// ProductRepo productos y su fila de stock.
type ProductRepo struct {
	conn
}

// NewProductRepository construye el adaptador.
func NewProductRepository(q Querier, timeout time.Duration) *ProductRepo {
	return &ProductRepo{conn{q: q, timeout: timeout}}
}

// Create persiste un producto sin stock.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		INSERT INTO products (id, name, description, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.Exec(ctx, query, p.ID, p.Name, p.Description, p.UnitPrice, p.CreatedAt, p.UpdatedAt); err != nil {
		return storeErr("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto con su stock (nil si no tiene fila de stock).
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	p, err := scanProduct(r.q.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get product by id", err)
	}
	return p, nil
}

// List lista productos ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rows, err := r.q.Query(ctx, productSelect+` ORDER BY p.name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, storeErr("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, storeErr("scan product", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list products", err)
	}
	return list, nil
}

// Update actualiza nombre, descripción y precio.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	tag, err := r.q.Exec(ctx,
		`UPDATE products SET name = $2, description = $3, unit_price = $4, updated_at = $5 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.UnitPrice, p.UpdatedAt)
	if err != nil {
		return storeErr("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetStock obtiene la fila de stock; (nil, nil) si el producto no tiene stock asignado.
func (r *ProductRepo) GetStock(ctx context.Context, productID string) (*entity.ProductStock, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var s entity.ProductStock
	err := r.q.QueryRow(ctx,
		`SELECT product_id, quantity, updated_at FROM product_stocks WHERE product_id = $1`, productID).
		Scan(&s.ProductID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get stock", err)
	}
	return &s, nil
}

// AddStock suma quantity, creando la fila si no existe.
func (r *ProductRepo) AddStock(ctx context.Context, productID string, quantity int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		INSERT INTO product_stocks (product_id, quantity, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = product_stocks.quantity + EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, productID, quantity); err != nil {
		return storeErr("add stock", err)
	}
	return nil
}

// SetStock fija la cantidad; domain.ErrNotFound si no hay fila de stock.
func (r *ProductRepo) SetStock(ctx context.Context, productID string, quantity int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	tag, err := r.q.Exec(ctx,
		`UPDATE product_stocks SET quantity = $2, updated_at = now() WHERE product_id = $1`, productID, quantity)
	if err != nil {
		return storeErr("set stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DecrementStock resta quantity de forma condicional; nunca deja stock negativo.
func (r *ProductRepo) DecrementStock(ctx context.Context, productID string, quantity int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	tag, err := r.q.Exec(ctx, `
		UPDATE product_stocks SET quantity = quantity - $2, updated_at = now()
		WHERE product_id = $1 AND quantity >= $2`, productID, quantity)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return storeErr("decrement stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var (
		p     entity.Product
		stock *int32
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice, &stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if stock != nil {
		q := int(*stock)
		p.Stock = &q
	}
	return &p, nil
}
