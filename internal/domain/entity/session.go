package entity

import "time"

// RefreshToken sesión renovable de un empleado. El token se rota en sitio.
type RefreshToken struct {
	ID         string
	Token      string
	ExpiresAt  time.Time
	EmployeeID string
	CreatedAt  time.Time
}

// Expired indica si el token venció respecto a now.
func (t *RefreshToken) Expired(now time.Time) bool { return t.ExpiresAt.Before(now) }

// RecoveryToken token de un solo uso para restablecer contraseña. Máximo una fila por empleado.
type RecoveryToken struct {
	ID         string
	Token      string
	ExpiresAt  time.Time
	IsUsed     bool
	EmployeeID string
}

// Expired indica si el token venció respecto a now.
func (t *RecoveryToken) Expired(now time.Time) bool { return t.ExpiresAt.Before(now) }
