package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/application/usecase"
	"github.com/jhoicas/facturabodega-api/internal/domain"
)

// EmployeeService gestión de empleados (lo implementa usecase.EmployeeUseCase).
type EmployeeService interface {
	Create(ctx context.Context, in dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error)
	Update(ctx context.Context, id string, in dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	ChangeRole(ctx context.Context, id string, in dto.ChangeRoleRequest) (*dto.EmployeeResponse, error)
	Deactivate(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*dto.EmployeeResponse, error)
	List(ctx context.Context, status string, page dto.PageRequest) (*dto.EmployeeListResponse, error)
}

var _ EmployeeService = (*usecase.EmployeeUseCase)(nil)

// SessionRevoker revoca las sesiones de un empleado.
type SessionRevoker interface {
	RevokeSessions(ctx context.Context, employeeID string) (int64, error)
}

// EmployeeHandler maneja las peticiones HTTP de empleados (protegido).
type EmployeeHandler struct {
	uc       EmployeeService
	sessions SessionRevoker
}

// NewEmployeeHandler construye el handler.
func NewEmployeeHandler(uc EmployeeService, sessions SessionRevoker) *EmployeeHandler {
	return &EmployeeHandler{uc: uc, sessions: sessions}
}

type employeeListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Limit  int    `query:"limit" validate:"min=0,max=100"`
	Offset int    `query:"offset" validate:"min=0"`
}

// List GET /api/employees?status=&limit=&offset=
func (h *EmployeeHandler) List(c *fiber.Ctx) error {
	var q employeeListQuery
	if err := parseQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), q.Status, dto.PageRequest{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/employees/:id
func (h *EmployeeHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create POST /api/employees
func (h *EmployeeHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateEmployeeRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update PUT /api/employees/:id
func (h *EmployeeHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateEmployeeRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ChangeRole PUT /api/employees/:id/role
func (h *EmployeeHandler) ChangeRole(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.ChangeRoleRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ChangeRole(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Deactivate DELETE /api/employees/:id. Un empleado no puede desactivarse a sí mismo.
func (h *EmployeeHandler) Deactivate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if id == GetEmployeeID(c) {
		return respondError(c, domain.NewFieldError("id", domain.ErrConflict, "No puede desactivar su propia cuenta."))
	}
	if err := h.uc.Deactivate(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "El empleado ha sido desactivado."})
}

// RevokeSessions DELETE /api/employees/:id/sessions
func (h *EmployeeHandler) RevokeSessions(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.uc.GetByID(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	n, err := h.sessions.RevokeSessions(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"revoked": n})
}
