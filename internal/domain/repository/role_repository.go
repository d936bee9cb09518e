package repository

import (
	"context"

	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
)

// RoleRepository roles y su relación con permisos.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	// ListWithPermissions lee todos los roles con su conjunto de permisos (carga del catálogo).
	ListWithPermissions(ctx context.Context) ([]*entity.Role, error)
	// CreateRole y CreatePermission son idempotentes por nombre y devuelven el ID existente o nuevo.
	CreateRole(ctx context.Context, name string) (string, error)
	CreatePermission(ctx context.Context, name string) (string, error)
	GrantPermission(ctx context.Context, roleID, permissionID string) error
}
