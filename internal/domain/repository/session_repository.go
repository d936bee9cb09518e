package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
)

// RefreshTokenRepository almacén de sesiones.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t *entity.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	// Rotate reemplaza el token en sitio solo si la fila aún contiene oldToken (compare-and-swap).
	// Devuelve false si otra rotación ganó la carrera. rotatedAt pasa a ser el created_at de la sesión,
	// así la depuración trata como reciente a la sesión que sigue en uso.
	Rotate(ctx context.Context, oldToken, newToken string, expiresAt, rotatedAt time.Time) (bool, error)
	// PruneForEmployee borra las sesiones vencidas y deja como máximo keep sesiones, las más recientes.
	PruneForEmployee(ctx context.Context, employeeID string, now time.Time, keep int) (int64, error)
	DeleteByEmployee(ctx context.Context, employeeID string) (int64, error)
}

// RecoveryTokenRepository almacén de tokens de recuperación (una fila por empleado).
type RecoveryTokenRepository interface {
	// Upsert inserta o sobrescribe token/expiración de la fila del empleado y reinicia is_used.
	Upsert(ctx context.Context, t *entity.RecoveryToken) error
	GetByToken(ctx context.Context, token string) (*entity.RecoveryToken, error)
	// MarkUsed marca el token como usado solo si aún no lo estaba. false = otro canje ganó.
	MarkUsed(ctx context.Context, token string) (bool, error)
}
