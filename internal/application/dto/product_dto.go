package dto

import "github.com/shopspring/decimal"

// CreateProductRequest alta de producto.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// UpdateProductRequest edición de producto.
type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// StockRequest cantidad a sumar o fijar.
type StockRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// ProductResponse producto con su stock (nil si no tiene stock asignado).
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       *int            `json:"stock"`
}

// StockResponse existencias de un producto.
type StockResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ProductListResponse listado paginado.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
