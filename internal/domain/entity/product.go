package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto vendible; la existencia vive en ProductStock.
type Product struct {
	ID          string
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	Stock       *int // nil si el producto aún no tiene stock asignado
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
