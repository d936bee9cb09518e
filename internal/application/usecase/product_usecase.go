package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/domain"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

// ProductUseCase CRUD de productos y manejo de existencias.
type ProductUseCase struct {
	repo repository.ProductRepository
	now  func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, now: time.Now}
}

// Create crea un producto sin stock asignado.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := checkPrice(in.UnitPrice); err != nil {
		return nil, err
	}
	now := uc.now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		UnitPrice:   in.UnitPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto con su stock.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza nombre, descripción y precio. El stock se maneja aparte.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := checkPrice(in.UnitPrice); err != nil {
		return nil, err
	}
	product, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = in.Name
	product.Description = in.Description
	product.UnitPrice = in.UnitPrice
	product.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// AddStock suma unidades; crea el stock si el producto aún no lo tiene.
func (uc *ProductUseCase) AddStock(ctx context.Context, id string, in dto.StockRequest) (*dto.StockResponse, error) {
	if in.Quantity <= 0 {
		return nil, domain.NewFieldError("quantity", domain.ErrInvalidInput, "La cantidad debe ser mayor a cero.")
	}
	if _, err := uc.mustGet(ctx, id); err != nil {
		return nil, err
	}
	if err := uc.repo.AddStock(ctx, id, in.Quantity); err != nil {
		return nil, fmt.Errorf("add stock: %w", err)
	}
	return uc.GetStock(ctx, id)
}

// SetStock fija la cantidad; el producto debe tener stock asignado.
func (uc *ProductUseCase) SetStock(ctx context.Context, id string, in dto.StockRequest) (*dto.StockResponse, error) {
	if in.Quantity < 0 {
		return nil, domain.NewFieldError("quantity", domain.ErrInvalidInput, "La cantidad no puede ser negativa.")
	}
	if _, err := uc.mustGet(ctx, id); err != nil {
		return nil, err
	}
	if err := uc.repo.SetStock(ctx, id, in.Quantity); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewFieldError("product_id", domain.ErrNotFound, "El producto no tiene stock asignado.")
		}
		return nil, fmt.Errorf("set stock: %w", err)
	}
	return &dto.StockResponse{ProductID: id, Quantity: in.Quantity}, nil
}

// GetStock existencias del producto; ErrNotFound si no tiene stock asignado.
func (uc *ProductUseCase) GetStock(ctx context.Context, id string) (*dto.StockResponse, error) {
	stock, err := uc.repo.GetStock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	if stock == nil {
		return nil, domain.ErrNotFound
	}
	return &dto.StockResponse{ProductID: stock.ProductID, Quantity: stock.Quantity}, nil
}

func (uc *ProductUseCase) mustGet(ctx context.Context, id string) (*entity.Product, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func checkPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return domain.NewFieldError("unit_price", domain.ErrInvalidInput, "El precio unitario no puede ser negativo.")
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
		Stock:       p.Stock,
	}
}
