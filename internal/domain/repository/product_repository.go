package repository

import (
	"context"

	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
)

// ProductRepository puerto de persistencia para Product y su stock.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	Update(ctx context.Context, p *entity.Product) error

	GetStock(ctx context.Context, productID string) (*entity.ProductStock, error)
	// AddStock suma quantity; crea la fila de stock si no existe.
	AddStock(ctx context.Context, productID string, quantity int) error
	// SetStock fija la cantidad; domain.ErrNotFound si el producto no tiene stock asignado.
	SetStock(ctx context.Context, productID string, quantity int) error
	// DecrementStock resta quantity solo si alcanza; domain.ErrInsufficientStock si no.
	DecrementStock(ctx context.Context, productID string, quantity int) error
}
