package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturabodega-api/internal/application/authz"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
	"github.com/jhoicas/facturabodega-api/pkg/password"
)

// AdminSeed datos del empleado administrador inicial.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
	Document string
}

// SeedUseCase siembra el catálogo de roles y permisos y el administrador inicial.
// Todas las operaciones son idempotentes: correrlas dos veces no duplica filas.
type SeedUseCase struct {
	roles     repository.RoleRepository
	employees repository.EmployeeRepository
	hasher    PasswordHasher
	log       zerolog.Logger
	now       func() time.Time
}

func NewSeedUseCase(roles repository.RoleRepository, employees repository.EmployeeRepository, hasher PasswordHasher, log zerolog.Logger) *SeedUseCase {
	return &SeedUseCase{roles: roles, employees: employees, hasher: hasher, log: log, now: time.Now}
}

// SeedCatalog crea los permisos conocidos, ADMIN con todos y BASIC con los básicos.
func (uc *SeedUseCase) SeedCatalog(ctx context.Context) error {
	permIDs := make(map[string]string, len(authz.All))
	for _, name := range authz.All {
		id, err := uc.roles.CreatePermission(ctx, name)
		if err != nil {
			return fmt.Errorf("seed: permiso %s: %w", name, err)
		}
		permIDs[name] = id
	}

	grants := map[string][]string{
		entity.RoleAdmin: authz.All,
		entity.RoleBasic: authz.BasicPermissions,
	}
	for _, role := range []string{entity.RoleAdmin, entity.RoleBasic} {
		roleID, err := uc.roles.CreateRole(ctx, role)
		if err != nil {
			return fmt.Errorf("seed: rol %s: %w", role, err)
		}
		for _, perm := range grants[role] {
			if err := uc.roles.GrantPermission(ctx, roleID, permIDs[perm]); err != nil {
				return fmt.Errorf("seed: otorgar %s a %s: %w", perm, role, err)
			}
		}
		uc.log.Info().Str("role", role).Int("permissions", len(grants[role])).Msg("rol sembrado")
	}
	return nil
}

// EnsureAdmin crea el administrador si su email no está registrado.
// Devuelve true si lo creó.
func (uc *SeedUseCase) EnsureAdmin(ctx context.Context, in AdminSeed) (bool, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return false, fmt.Errorf("seed: email y contraseña del administrador son requeridos")
	}
	if problems := password.CheckStrength(in.Password); len(problems) > 0 {
		return false, fmt.Errorf("seed: contraseña del administrador débil: %s", strings.Join(problems, " "))
	}

	existing, err := uc.employees.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	if existing != nil {
		uc.log.Info().Str("employee_id", existing.ID).Msg("administrador ya existe, se omite")
		return false, nil
	}

	role, err := uc.roles.GetByName(ctx, entity.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	if role == nil {
		return false, fmt.Errorf("seed: rol %s no existe; sembrar el catálogo primero", entity.RoleAdmin)
	}

	now := uc.now()
	emp := &entity.Employee{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Document:     in.Document,
		Email:        email,
		HiringDate:   now,
		ContractType: entity.ContractFullTime,
		Status:       entity.EmployeeActive,
		RoleID:       role.ID,
		RoleName:     role.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	emp.PasswordHash, err = uc.hasher.HashPassword(emp.ID, in.Password)
	if err != nil {
		return false, fmt.Errorf("seed: hash: %w", err)
	}
	if err := uc.employees.Create(ctx, emp); err != nil {
		return false, fmt.Errorf("seed: crear administrador: %w", err)
	}
	uc.log.Info().Str("employee_id", emp.ID).Str("email", email).Msg("administrador creado")
	return true, nil
}
