package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/domain"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

// CreateInvoiceUseCase crea facturas y descuenta el stock en una sola transacción.
type CreateInvoiceUseCase struct {
	txRunner     BillingTxRunner
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	invoiceRepo  repository.InvoiceRepository
	log          zerolog.Logger
	now          func() time.Time
}

// NewCreateInvoiceUseCase construye el caso de uso.
func NewCreateInvoiceUseCase(
	txRunner BillingTxRunner,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
	log zerolog.Logger,
) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{
		txRunner:     txRunner,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		invoiceRepo:  invoiceRepo,
		log:          log,
		now:          time.Now,
	}
}

// CreateInvoice valida cliente, productos y stock (acumulando todos los fallos), y luego
// guarda cabecera y detalles descontando existencias. El empleado es el sujeto del token.
func (uc *CreateInvoiceUseCase) CreateInvoice(ctx context.Context, employeeID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	var v domain.ValidationError

	customer, err := uc.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	if customer == nil {
		v.Add("customer_id", "El cliente no se encuentra registrado en la base de datos.")
	}

	// Cantidad pedida por producto; un producto puede repetirse en varias líneas.
	requested := make(map[string]int, len(in.Details))
	for _, d := range in.Details {
		requested[d.ProductID] += d.Quantity
	}
	products := make(map[string]*entity.Product, len(requested))
	for i, d := range in.Details {
		field := fmt.Sprintf("details[%d].product_id", i)
		if _, seen := products[d.ProductID]; seen {
			continue
		}
		p, err := uc.productRepo.GetByID(ctx, d.ProductID)
		if err != nil {
			return nil, fmt.Errorf("create invoice: %w", err)
		}
		if p == nil {
			v.Add(field, fmt.Sprintf("El producto con Id %s no se encuentra registrado en la base de datos.", d.ProductID))
			continue
		}
		products[d.ProductID] = p
		if p.Stock == nil || *p.Stock < requested[d.ProductID] {
			v.Add(field, fmt.Sprintf("El producto con Id %s no tiene stock suficiente para la cantidad solicitada.", d.ProductID))
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	now := uc.now()
	inv := &entity.Invoice{
		ID:         uuid.New().String(),
		Date:       now,
		CustomerID: customer.ID,
		EmployeeID: employeeID,
		Total:      decimal.Zero,
		CreatedAt:  now,
	}
	for _, d := range in.Details {
		p := products[d.ProductID]
		subtotal := p.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
		inv.Details = append(inv.Details, &entity.InvoiceDetail{
			ID:          uuid.New().String(),
			InvoiceID:   inv.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    d.Quantity,
			UnitPrice:   p.UnitPrice,
			Subtotal:    subtotal,
		})
		inv.Total = inv.Total.Add(subtotal)
	}

	err = uc.txRunner.RunBilling(ctx, func(productRepo repository.ProductRepository, invoiceRepo repository.InvoiceRepository) error {
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		for i, d := range inv.Details {
			// El descuento es condicional en SQL: otra factura concurrente pudo consumir el stock.
			if err := productRepo.DecrementStock(ctx, d.ProductID, d.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					return domain.NewFieldError(fmt.Sprintf("details[%d].product_id", i), domain.ErrInsufficientStock,
						fmt.Sprintf("El producto con Id %s no tiene stock suficiente para la cantidad solicitada.", d.ProductID))
				}
				return err
			}
			if err := invoiceRepo.CreateDetail(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return nil, err
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("employee_id", employeeID).
		Str("total", inv.Total.StringFixed(2)).Msg("factura creada")
	return toInvoiceResponse(inv, inv.Details), nil
}

// GetInvoice obtiene una factura por ID con su detalle completo.
func (uc *CreateInvoiceUseCase) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	details, err := uc.invoiceRepo.GetDetailsByInvoiceID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return toInvoiceResponse(inv, details), nil
}

// ListInvoices lista cabeceras de factura, más recientes primero.
func (uc *CreateInvoiceUseCase) ListInvoices(ctx context.Context, page dto.PageRequest) (*dto.InvoiceListResponse, error) {
	page.DefaultPage()
	list, err := uc.invoiceRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	items := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		items = append(items, *toInvoiceResponse(inv, nil))
	}
	return &dto.InvoiceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func toInvoiceResponse(inv *entity.Invoice, details []*entity.InvoiceDetail) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:         inv.ID,
		Date:       inv.Date,
		CustomerID: inv.CustomerID,
		EmployeeID: inv.EmployeeID,
		Total:      inv.Total,
	}
	for _, d := range details {
		resp.Details = append(resp.Details, dto.InvoiceDetailResponse{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Subtotal:    d.Subtotal,
		})
	}
	return resp
}
