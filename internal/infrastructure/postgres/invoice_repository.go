package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo cabeceras y detalles de factura.
type InvoiceRepo struct {
	conn
}

// NewInvoiceRepository construye el adaptador.
func NewInvoiceRepository(q Querier, timeout time.Duration) *InvoiceRepo {
	return &InvoiceRepo{conn{q: q, timeout: timeout}}
}

// Create persiste la cabecera.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		INSERT INTO invoices (id, date, customer_id, employee_id, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.Exec(ctx, query, inv.ID, inv.Date, inv.CustomerID, inv.EmployeeID, inv.Total, inv.CreatedAt); err != nil {
		return storeErr("insert invoice", err)
	}
	return nil
}

// CreateDetail persiste una línea de factura.
func (r *InvoiceRepo) CreateDetail(ctx context.Context, d *entity.InvoiceDetail) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		INSERT INTO invoice_details (id, invoice_id, product_id, product_name, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.q.Exec(ctx, query, d.ID, d.InvoiceID, d.ProductID, d.ProductName, d.Quantity, d.UnitPrice, d.Subtotal); err != nil {
		return storeErr("insert invoice detail", err)
	}
	return nil
}

// GetByID obtiene la cabecera por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var inv entity.Invoice
	err := r.q.QueryRow(ctx,
		`SELECT id, date, customer_id, employee_id, total, created_at FROM invoices WHERE id = $1`, id).
		Scan(&inv.ID, &inv.Date, &inv.CustomerID, &inv.EmployeeID, &inv.Total, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get invoice", err)
	}
	return &inv, nil
}

// GetDetailsByInvoiceID lista las líneas de la factura.
func (r *InvoiceRepo) GetDetailsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceDetail, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, product_id, product_name, quantity, unit_price, subtotal
		FROM invoice_details WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, storeErr("list invoice details", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceDetail
	for rows.Next() {
		var d entity.InvoiceDetail
		var qty int32
		if err := rows.Scan(&d.ID, &d.InvoiceID, &d.ProductID, &d.ProductName, &qty, &d.UnitPrice, &d.Subtotal); err != nil {
			return nil, storeErr("scan invoice detail", err)
		}
		d.Quantity = int(qty)
		list = append(list, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list invoice details", err)
	}
	return list, nil
}

// List lista cabeceras, más recientes primero.
func (r *InvoiceRepo) List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rows, err := r.q.Query(ctx, `
		SELECT id, date, customer_id, employee_id, total, created_at
		FROM invoices ORDER BY date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, storeErr("list invoices", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		if err := rows.Scan(&inv.ID, &inv.Date, &inv.CustomerID, &inv.EmployeeID, &inv.Total, &inv.CreatedAt); err != nil {
			return nil, storeErr("scan invoice", err)
		}
		list = append(list, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list invoices", err)
	}
	return list, nil
}
