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

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación del puerto CustomerRepository.
type CustomerRepo struct {
	conn
}

// NewCustomerRepository construye el adaptador.
func NewCustomerRepository(q Querier, timeout time.Duration) *CustomerRepo {
	return &CustomerRepo{conn{q: q, timeout: timeout}}
}

// Create persiste un nuevo cliente.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		INSERT INTO customers (id, name, email, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, c.ID, c.Name, c.Email, c.Document, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr("insert customer", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	return r.findOne(ctx, "get customer by id", `WHERE id = $1`, id)
}

// GetByDocument obtiene un cliente por documento.
func (r *CustomerRepo) GetByDocument(ctx context.Context, document string) (*entity.Customer, error) {
	return r.findOne(ctx, "get customer by document", `WHERE document = $1`, document)
}

func (r *CustomerRepo) findOne(ctx context.Context, op, where string, arg any) (*entity.Customer, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `SELECT id, name, email, document, created_at, updated_at FROM customers ` + where
	var c entity.Customer
	err := r.q.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Email, &c.Document, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(op, err)
	}
	return &c, nil
}

// List lista clientes ordenados por nombre.
func (r *CustomerRepo) List(ctx context.Context, limit, offset int) ([]*entity.Customer, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		SELECT id, name, email, document, created_at, updated_at
		FROM customers ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, storeErr("list customers", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		var c entity.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Document, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, storeErr("scan customer", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list customers", err)
	}
	return list, nil
}

// Update actualiza un cliente.
func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `UPDATE customers SET name = $2, email = $3, document = $4, updated_at = $5 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, c.ID, c.Name, c.Email, c.Document, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr("update customer", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
