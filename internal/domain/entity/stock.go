package entity

import "time"

// ProductStock existencias de un producto en bodega.
type ProductStock struct {
	ProductID string
	Quantity  int
	UpdatedAt time.Time
}
