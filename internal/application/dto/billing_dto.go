package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Document string `json:"document" validate:"required,max=20"`
}

// UpdateCustomerRequest body para PUT /api/customers/:id.
type UpdateCustomerRequest = CreateCustomerRequest

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
}

// CustomerListResponse listado paginado.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// CreateInvoiceRequest body para POST /api/invoices. El empleado sale del token.
type CreateInvoiceRequest struct {
	CustomerID string                 `json:"customer_id" validate:"required,max=200"`
	Details    []InvoiceDetailRequest `json:"details" validate:"required,min=1,dive"`
}

// InvoiceDetailRequest línea de factura.
type InvoiceDetailRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// InvoiceDetailResponse línea de factura en respuestas.
type InvoiceDetailResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// InvoiceResponse factura con detalle.
type InvoiceResponse struct {
	ID         string                  `json:"id"`
	Date       time.Time               `json:"date"`
	CustomerID string                  `json:"customer_id"`
	EmployeeID string                  `json:"employee_id"`
	Total      decimal.Decimal         `json:"total"`
	Details    []InvoiceDetailResponse `json:"details,omitempty"`
}

// InvoiceListResponse listado paginado (sin detalles).
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
