package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturabodega-api/internal/application/billing"
	"github.com/jhoicas/facturabodega-api/internal/application/dto"
)

// InvoiceService facturación (lo implementa billing.CreateInvoiceUseCase).
type InvoiceService interface {
	CreateInvoice(ctx context.Context, employeeID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, page dto.PageRequest) (*dto.InvoiceListResponse, error)
}

// InvoicePDFService representación gráfica (lo implementa billing.PDFUseCase).
type InvoicePDFService interface {
	DownloadInvoicePDF(ctx context.Context, invoiceID string) ([]byte, string, error)
}

var (
	_ InvoiceService    = (*billing.CreateInvoiceUseCase)(nil)
	_ InvoicePDFService = (*billing.PDFUseCase)(nil)
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	uc  InvoiceService
	pdf InvoicePDFService
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc InvoiceService, pdf InvoicePDFService) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, pdf: pdf}
}

// Create crea una factura y descuenta inventario. El vendedor es el sujeto del token.
// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	invoice, err := h.uc.CreateInvoice(c.UserContext(), GetEmployeeID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetByID obtiene el detalle completo de una factura.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	invoice, err := h.uc.GetInvoice(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}

// List GET /api/invoices
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := parseQuery(c, &page); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ListInvoices(c.UserContext(), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF GET /api/invoices/:id/pdf
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	pdf, filename, err := h.pdf.DownloadInvoicePDF(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}
