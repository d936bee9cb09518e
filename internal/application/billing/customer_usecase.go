package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/domain"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

const msgDocumentTaken = "El documento proporcionado ya está registrado."

// CustomerUseCase casos de uso para clientes (facturación).
type CustomerUseCase struct {
	repo repository.CustomerRepository
	now  func() time.Time
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, now: time.Now}
}

// Create crea un nuevo cliente; el documento es único.
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	existing, err := uc.repo.GetByDocument(ctx, in.Document)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	if existing != nil {
		return nil, domain.NewFieldError("document", domain.ErrDuplicate, msgDocumentTaken)
	}
	now := uc.now()
	customer := &entity.Customer{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Document:  in.Document,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, customer); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewFieldError("document", domain.ErrDuplicate, msgDocumentTaken)
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return toCustomerResponse(customer), nil
}

// Update edita un cliente existente.
func (uc *CustomerUseCase) Update(ctx context.Context, id string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	customer, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Document != customer.Document {
		other, err := uc.repo.GetByDocument(ctx, in.Document)
		if err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
		if other != nil {
			return nil, domain.NewFieldError("document", domain.ErrDuplicate, msgDocumentTaken)
		}
	}
	customer.Name = in.Name
	customer.Email = in.Email
	customer.Document = in.Document
	customer.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return toCustomerResponse(customer), nil
}

// GetByID obtiene un cliente.
func (uc *CustomerUseCase) GetByID(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	customer, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// List lista clientes con paginación.
func (uc *CustomerUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.CustomerListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	items := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *toCustomerResponse(c))
	}
	return &dto.CustomerListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (uc *CustomerUseCase) mustGet(ctx context.Context, id string) (*entity.Customer, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Document: c.Document,
	}
}
