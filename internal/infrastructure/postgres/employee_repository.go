package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturabodega-api/internal/domain"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

var _ repository.EmployeeRepository = (*EmployeeRepo)(nil)

const employeeColumns = `
	e.id, e.name, e.document, e.email, e.password_hash, e.hiring_date, e.contract_type,
	e.status, e.role_id, r.name, e.created_at, e.updated_at`

// EmployeeRepo implementación del puerto EmployeeRepository sobre PostgreSQL.
type EmployeeRepo struct {
	conn
}

// NewEmployeeRepository construye el adaptador; q puede ser el pool o una transacción.
func NewEmployeeRepository(q Querier, timeout time.Duration) *EmployeeRepo {
	return &EmployeeRepo{conn{q: q, timeout: timeout}}
}

// Create persiste un nuevo empleado.
func (r *EmployeeRepo) Create(ctx context.Context, e *entity.Employee) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		INSERT INTO employees (id, name, document, email, password_hash, hiring_date, contract_type, status, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.Name, e.Document, e.Email, e.PasswordHash, e.HiringDate, e.ContractType,
		e.Status, e.RoleID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr("insert employee", err)
	}
	return nil
}

// GetByID obtiene un empleado por ID.
func (r *EmployeeRepo) GetByID(ctx context.Context, id string) (*entity.Employee, error) {
	return r.findOne(ctx, "get employee by id", `WHERE e.id = $1`, id)
}

// GetByEmail obtiene un empleado por email exacto.
func (r *EmployeeRepo) GetByEmail(ctx context.Context, email string) (*entity.Employee, error) {
	return r.findOne(ctx, "get employee by email", `WHERE e.email = $1`, email)
}

func (r *EmployeeRepo) findOne(ctx context.Context, op, where string, arg any) (*entity.Employee, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `SELECT` + employeeColumns + ` FROM employees e JOIN roles r ON r.id = e.role_id ` + where
	e, err := scanEmployee(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(op, err)
	}
	return e, nil
}

// List lista empleados con paginación, más recientes primero.
func (r *EmployeeRepo) List(ctx context.Context, f repository.EmployeeFilter) ([]*entity.Employee, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `SELECT` + employeeColumns + `
		FROM employees e JOIN roles r ON r.id = e.role_id
		WHERE ($1 = '' OR e.status = $1)
		ORDER BY e.created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, storeErr("list employees", err)
	}
	defer rows.Close()
	var list []*entity.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, storeErr("scan employee", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list employees", err)
	}
	return list, nil
}

// Update actualiza los datos de perfil del empleado.
func (r *EmployeeRepo) Update(ctx context.Context, e *entity.Employee) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		UPDATE employees SET name = $2, document = $3, email = $4, contract_type = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, e.ID, e.Name, e.Document, e.Email, e.ContractType, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr("update employee", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

// UpdatePassword reemplaza el hash de la contraseña.
func (r *EmployeeRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, "update employee password",
		`UPDATE employees SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

// UpdateRole asigna otro rol.
func (r *EmployeeRepo) UpdateRole(ctx context.Context, id, roleID string) error {
	return r.exec(ctx, "update employee role",
		`UPDATE employees SET role_id = $2, updated_at = now() WHERE id = $1`, id, roleID)
}

// SetStatus cambia el estado (ACTIVE / INACTIVE).
func (r *EmployeeRepo) SetStatus(ctx context.Context, id, status string) error {
	return r.exec(ctx, "update employee status",
		`UPDATE employees SET status = $2, updated_at = now() WHERE id = $1`, id, status)
}

func (r *EmployeeRepo) exec(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return storeErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (*entity.Employee, error) {
	var e entity.Employee
	err := row.Scan(
		&e.ID, &e.Name, &e.Document, &e.Email, &e.PasswordHash, &e.HiringDate, &e.ContractType,
		&e.Status, &e.RoleID, &e.RoleName, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
