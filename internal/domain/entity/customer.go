package entity

import "time"

// Customer cliente al que se le factura.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Document  string // cédula o NIT
	CreatedAt time.Time
	UpdatedAt time.Time
}
