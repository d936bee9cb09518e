package entity

import "github.com/shopspring/decimal"

// InvoiceDetail línea de factura; UnitPrice se congela al momento de facturar.
type InvoiceDetail struct {
	ID          string
	InvoiceID   string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}
