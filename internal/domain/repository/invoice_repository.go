package repository

import (
	"context"

	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
)

// InvoiceRepository puerto de persistencia para Invoice y detalles.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	CreateDetail(ctx context.Context, d *entity.InvoiceDetail) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetDetailsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceDetail, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error)
}
