package repository

import (
	"context"

	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
)

// EmployeeFilter filtros del listado de empleados.
type EmployeeFilter struct {
	Status string // vacío = todos
	Limit  int
	Offset int
}

// EmployeeRepository puerto del almacén de credenciales.
// Los getters devuelven (nil, nil) si no existe la fila.
type EmployeeRepository interface {
	Create(ctx context.Context, e *entity.Employee) error
	GetByID(ctx context.Context, id string) (*entity.Employee, error)
	// GetByEmail coincidencia exacta (sensible a mayúsculas).
	GetByEmail(ctx context.Context, email string) (*entity.Employee, error)
	List(ctx context.Context, f EmployeeFilter) ([]*entity.Employee, error)
	Update(ctx context.Context, e *entity.Employee) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id, roleID string) error
	SetStatus(ctx context.Context, id, status string) error
}
