package auth

import (
	"context"
	"time"

	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

// PasswordHasher verificador de credenciales ligado a la identidad (lo implementa password.Hasher).
type PasswordHasher interface {
	HashPassword(identity, plaintext string) (string, error)
	VerifyHashedPassword(identity, storedHash, plaintext string) bool
}

// AccessTokenSigner firma tokens de acceso (lo implementa jwt.Signer).
type AccessTokenSigner interface {
	Generate(subject, email, role string) (string, time.Time, error)
}

// PermissionEvaluator decide si un rol tiene un permiso (lo implementa authz.Registry).
type PermissionEvaluator interface {
	Evaluate(role, permission string) bool
}

// AuthTxRunner ejecuta fn en una transacción con repos de empleados y recuperación atados a ella.
type AuthTxRunner interface {
	RunAuth(ctx context.Context, fn func(
		employees repository.EmployeeRepository,
		recovery repository.RecoveryTokenRepository,
	) error) error
}
