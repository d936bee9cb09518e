package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/application/ports"
	"github.com/jhoicas/facturabodega-api/internal/domain"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
	"github.com/jhoicas/facturabodega-api/pkg/password"
)

const msgEmailTaken = "El correo electrónico proporcionado ya está registrado."

// PasswordHasher hashea contraseñas ligadas a la identidad del empleado.
type PasswordHasher interface {
	HashPassword(identity, plaintext string) (string, error)
}

// EmployeeUseCase alta, edición, cambio de rol y baja lógica de empleados.
type EmployeeUseCase struct {
	employees repository.EmployeeRepository
	roles     repository.RoleRepository
	sessions  repository.RefreshTokenRepository
	hasher    PasswordHasher
	notifier  ports.Notifier
	log       zerolog.Logger
	now       func() time.Time
}

// NewEmployeeUseCase construye el caso de uso.
func NewEmployeeUseCase(
	employees repository.EmployeeRepository,
	roles repository.RoleRepository,
	sessions repository.RefreshTokenRepository,
	hasher PasswordHasher,
	notifier ports.Notifier,
	log zerolog.Logger,
) *EmployeeUseCase {
	return &EmployeeUseCase{
		employees: employees,
		roles:     roles,
		sessions:  sessions,
		hasher:    hasher,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// Create registra un empleado con rol BASIC y le envía un correo de bienvenida.
func (uc *EmployeeUseCase) Create(ctx context.Context, in dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	var v domain.ValidationError
	for _, p := range password.CheckStrength(in.Password) {
		v.Add("password", p)
	}
	if in.HiringDate.After(uc.now()) {
		v.Add("hiring_date", "La fecha de contratación no puede ser futura.")
	}
	if !entity.ValidContractType(in.ContractType) {
		v.Add("contract_type", "Tipo de contrato inválido.")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	existing, err := uc.employees.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	if existing != nil {
		return nil, domain.NewFieldError("email", domain.ErrDuplicate, msgEmailTaken)
	}
	role, err := uc.roles.GetByName(ctx, entity.RoleBasic)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	if role == nil {
		return nil, domain.ErrRoleNotFound
	}

	now := uc.now()
	emp := &entity.Employee{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Document:     in.Document,
		Email:        in.Email,
		HiringDate:   in.HiringDate,
		ContractType: in.ContractType,
		Status:       entity.EmployeeActive,
		RoleID:       role.ID,
		RoleName:     role.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	emp.PasswordHash, err = uc.hasher.HashPassword(emp.ID, in.Password)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	if err := uc.employees.Create(ctx, emp); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewFieldError("email", domain.ErrDuplicate, msgEmailTaken)
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}

	// Bienvenida best-effort: el alta ya quedó persistida.
	if err := uc.notifier.Send(ctx, ports.Message{
		ToAddress: emp.Email,
		ToName:    emp.Name,
		Subject:   "Bienvenido al sistema",
		HTMLBody:  fmt.Sprintf("<p>Hola %s,</p><p>Has sido registrado exitosamente como empleado.</p>", html.EscapeString(emp.Name)),
	}); err != nil {
		uc.log.Warn().Err(err).Str("employee_id", emp.ID).Msg("no se pudo enviar el correo de bienvenida")
	}
	return toEmployeeResponse(emp), nil
}

// Update edita los datos del empleado (no credenciales ni rol).
func (uc *EmployeeUseCase) Update(ctx context.Context, id string, in dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	emp, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.ValidContractType(in.ContractType) {
		return nil, domain.NewFieldError("contract_type", domain.ErrInvalidInput, "Tipo de contrato inválido.")
	}
	if in.Email != emp.Email {
		other, err := uc.employees.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("update employee: %w", err)
		}
		if other != nil {
			return nil, domain.NewFieldError("email", domain.ErrDuplicate, msgEmailTaken)
		}
	}
	emp.Name = in.Name
	emp.Document = in.Document
	emp.Email = in.Email
	emp.ContractType = in.ContractType
	emp.UpdatedAt = uc.now()
	if err := uc.employees.Update(ctx, emp); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewFieldError("email", domain.ErrDuplicate, msgEmailTaken)
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return toEmployeeResponse(emp), nil
}

// ChangeRole asigna el rol indicado por nombre. El token vigente conserva el rol anterior hasta refrescarse.
func (uc *EmployeeUseCase) ChangeRole(ctx context.Context, id string, in dto.ChangeRoleRequest) (*dto.EmployeeResponse, error) {
	emp, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := uc.roles.GetByName(ctx, in.RoleName)
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	if role == nil {
		return nil, domain.NewFieldError("role_name", domain.ErrRoleNotFound, "El rol indicado no existe.")
	}
	if err := uc.employees.UpdateRole(ctx, emp.ID, role.ID); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	emp.RoleID, emp.RoleName = role.ID, role.Name
	uc.log.Info().Str("employee_id", emp.ID).Str("role", role.Name).Msg("rol de empleado actualizado")
	return toEmployeeResponse(emp), nil
}

// Deactivate pasa el empleado a INACTIVE y revoca sus sesiones. Nunca se elimina la fila.
func (uc *EmployeeUseCase) Deactivate(ctx context.Context, id string) error {
	emp, err := uc.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.employees.SetStatus(ctx, emp.ID, entity.EmployeeInactive); err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
	}
	n, err := uc.sessions.DeleteByEmployee(ctx, emp.ID)
	if err != nil {
		// El refresh también rechaza empleados inactivos.
		uc.log.Warn().Err(err).Str("employee_id", emp.ID).Msg("no se pudieron revocar las sesiones")
		return nil
	}
	uc.log.Info().Str("employee_id", emp.ID).Int64("sessions", n).Msg("empleado desactivado")
	return nil
}

// GetByID obtiene un empleado; domain.ErrEmployeeNotFound si no existe.
func (uc *EmployeeUseCase) GetByID(ctx context.Context, id string) (*dto.EmployeeResponse, error) {
	emp, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEmployeeResponse(emp), nil
}

// List lista empleados, opcionalmente filtrados por estado.
func (uc *EmployeeUseCase) List(ctx context.Context, status string, page dto.PageRequest) (*dto.EmployeeListResponse, error) {
	page.DefaultPage()
	list, err := uc.employees.List(ctx, repository.EmployeeFilter{Status: status, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	items := make([]dto.EmployeeResponse, 0, len(list))
	for _, e := range list {
		items = append(items, *toEmployeeResponse(e))
	}
	return &dto.EmployeeListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (uc *EmployeeUseCase) mustGet(ctx context.Context, id string) (*entity.Employee, error) {
	emp, err := uc.employees.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if emp == nil {
		return nil, domain.ErrEmployeeNotFound
	}
	return emp, nil
}

func toEmployeeResponse(e *entity.Employee) *dto.EmployeeResponse {
	return &dto.EmployeeResponse{
		ID:           e.ID,
		Name:         e.Name,
		Document:     e.Document,
		Email:        e.Email,
		HiringDate:   e.HiringDate,
		ContractType: e.ContractType,
		Status:       e.Status,
		Role:         e.RoleName,
	}
}
