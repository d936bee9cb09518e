package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo roles, permisos y su relación.
type RoleRepo struct {
	conn
}

// NewRoleRepository construye el adaptador.
func NewRoleRepository(q Querier, timeout time.Duration) *RoleRepo {
	return &RoleRepo{conn{q: q, timeout: timeout}}
}

// GetByName obtiene un rol (sin permisos) por nombre.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var role entity.Role
	err := r.q.QueryRow(ctx, `SELECT id, name, status FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get role by name", err)
	}
	return &role, nil
}

// ListWithPermissions lee todos los roles con sus permisos en una sola consulta.
// Un rol sin permisos aparece con el conjunto vacío.
func (r *RoleRepo) ListWithPermissions(ctx context.Context) ([]*entity.Role, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		SELECT r.id, r.name, r.status, p.id, p.name
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		ORDER BY r.name, p.name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, storeErr("list roles with permissions", err)
	}
	defer rows.Close()

	byID := make(map[string]*entity.Role)
	var list []*entity.Role
	for rows.Next() {
		var (
			roleID, roleName, status string
			permID, permName         *string
		)
		if err := rows.Scan(&roleID, &roleName, &status, &permID, &permName); err != nil {
			return nil, storeErr("scan role permission", err)
		}
		role, ok := byID[roleID]
		if !ok {
			role = &entity.Role{ID: roleID, Name: roleName, Status: status}
			byID[roleID] = role
			list = append(list, role)
		}
		if permID != nil && permName != nil {
			role.Permissions = append(role.Permissions, entity.Permission{ID: *permID, Name: *permName})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list roles with permissions", err)
	}
	return list, nil
}

// CreateRole inserta el rol si no existe y devuelve su ID.
func (r *RoleRepo) CreateRole(ctx context.Context, name string) (string, error) {
	return r.upsertByName(ctx, "create role",
		`INSERT INTO roles (id, name) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`, name)
}

// CreatePermission inserta el permiso si no existe y devuelve su ID.
func (r *RoleRepo) CreatePermission(ctx context.Context, name string) (string, error) {
	return r.upsertByName(ctx, "create permission",
		`INSERT INTO permissions (id, name) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`, name)
}

// GrantPermission asocia el permiso al rol (idempotente).
func (r *RoleRepo) GrantPermission(ctx context.Context, roleID, permissionID string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	_, err := r.q.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		roleID, permissionID)
	if err != nil {
		return storeErr("grant permission", err)
	}
	return nil
}

func (r *RoleRepo) upsertByName(ctx context.Context, op, query, name string) (string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var id string
	if err := r.q.QueryRow(ctx, query, uuid.New().String(), name).Scan(&id); err != nil {
		return "", storeErr(op, err)
	}
	return id, nil
}
