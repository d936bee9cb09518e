package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice cabecera de factura. Total se calcula a partir de los detalles.
type Invoice struct {
	ID         string
	Date       time.Time
	CustomerID string
	EmployeeID string
	Total      decimal.Decimal
	Details    []*InvoiceDetail
	CreatedAt  time.Time
}
