package dto

import "time"

// CreateEmployeeRequest alta de empleado (password en texto, se hashea en el use case).
type CreateEmployeeRequest struct {
	Name         string    `json:"name" validate:"required,max=100"`
	Document     string    `json:"document" validate:"required,max=20"`
	Email        string    `json:"email" validate:"required,email,max=100"`
	Password     string    `json:"password" validate:"required"`
	HiringDate   time.Time `json:"hiring_date" validate:"required"`
	ContractType string    `json:"contract_type" validate:"required,oneof=FULL_TIME PART_TIME CONTRACTOR"`
}

// UpdateEmployeeRequest edición de datos del empleado.
type UpdateEmployeeRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Document     string `json:"document" validate:"required,max=20"`
	Email        string `json:"email" validate:"required,email,max=100"`
	ContractType string `json:"contract_type" validate:"required,oneof=FULL_TIME PART_TIME CONTRACTOR"`
}

// ChangeRoleRequest cambio de rol por nombre.
type ChangeRoleRequest struct {
	RoleName string `json:"role_name" validate:"required,max=50"`
}

// EmployeeResponse empleado sin credenciales.
type EmployeeResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Document     string    `json:"document"`
	Email        string    `json:"email"`
	HiringDate   time.Time `json:"hiring_date"`
	ContractType string    `json:"contract_type"`
	Status       string    `json:"status"`
	Role         string    `json:"role"`
}

// EmployeeListResponse listado paginado.
type EmployeeListResponse struct {
	Items []EmployeeResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
