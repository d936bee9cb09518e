package entity

import "time"

// Tipos de contrato.
const (
	ContractFullTime   = "FULL_TIME"
	ContractPartTime   = "PART_TIME"
	ContractContractor = "CONTRACTOR"
)

// Estados del empleado. Un empleado nunca se elimina: pasa a INACTIVE.
const (
	EmployeeInactive = "INACTIVE"
	EmployeeActive   = "ACTIVE"
)

// Employee empleado con credenciales de acceso al back office.
type Employee struct {
	ID           string
	Name         string
	Document     string
	Email        string
	PasswordHash string // argon2id ligado al ID del empleado, nunca plano
	HiringDate   time.Time
	ContractType string
	Status       string
	RoleID       string
	RoleName     string // denormalizado desde roles (JOIN)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive indica si el empleado puede autenticarse.
func (e *Employee) IsActive() bool { return e.Status == EmployeeActive }

// ValidContractType indica si el tipo de contrato es uno de los admitidos.
func ValidContractType(ct string) bool {
	switch ct {
	case ContractFullTime, ContractPartTime, ContractContractor:
		return true
	}
	return false
}
