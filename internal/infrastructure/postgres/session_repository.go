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

var (
	_ repository.RefreshTokenRepository  = (*RefreshTokenRepo)(nil)
	_ repository.RecoveryTokenRepository = (*RecoveryTokenRepo)(nil)
)

// RefreshTokenRepo sesiones (tokens de refresco).
type RefreshTokenRepo struct {
	conn
}

// NewRefreshTokenRepository construye el adaptador.
func NewRefreshTokenRepository(q Querier, timeout time.Duration) *RefreshTokenRepo {
	return &RefreshTokenRepo{conn{q: q, timeout: timeout}}
}

// Create persiste una nueva sesión.
func (r *RefreshTokenRepo) Create(ctx context.Context, t *entity.RefreshToken) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	_, err := r.q.Exec(ctx,
		`INSERT INTO refresh_tokens (id, token, expires_at, employee_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Token, t.ExpiresAt, t.EmployeeID, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr("insert refresh token", err)
	}
	return nil
}

// GetByToken busca la sesión por el valor exacto del token.
func (r *RefreshTokenRepo) GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var t entity.RefreshToken
	err := r.q.QueryRow(ctx,
		`SELECT id, token, expires_at, employee_id, created_at FROM refresh_tokens WHERE token = $1`, token).
		Scan(&t.ID, &t.Token, &t.ExpiresAt, &t.EmployeeID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get refresh token", err)
	}
	return &t, nil
}

// Rotate compare-and-swap sobre el valor del token: solo una rotación concurrente lo consigue.
// created_at avanza con cada rotación para que PruneForEmployee conserve las sesiones activas.
func (r *RefreshTokenRepo) Rotate(ctx context.Context, oldToken, newToken string, expiresAt, rotatedAt time.Time) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	tag, err := r.q.Exec(ctx,
		`UPDATE refresh_tokens SET token = $2, expires_at = $3, created_at = $4 WHERE token = $1`,
		oldToken, newToken, expiresAt, rotatedAt)
	if err != nil {
		return false, storeErr("rotate refresh token", err)
	}
	return tag.RowsAffected() == 1, nil
}

// PruneForEmployee borra las sesiones vencidas y las que exceden keep (las más antiguas).
func (r *RefreshTokenRepo) PruneForEmployee(ctx context.Context, employeeID string, now time.Time, keep int) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		DELETE FROM refresh_tokens
		WHERE employee_id = $1
		  AND (expires_at < $2 OR id NOT IN (
		        SELECT id FROM refresh_tokens
		        WHERE employee_id = $1 AND expires_at >= $2
		        ORDER BY created_at DESC
		        LIMIT $3))`
	tag, err := r.q.Exec(ctx, query, employeeID, now, keep)
	if err != nil {
		return 0, storeErr("prune refresh tokens", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByEmployee revoca todas las sesiones del empleado.
func (r *RefreshTokenRepo) DeleteByEmployee(ctx context.Context, employeeID string) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	tag, err := r.q.Exec(ctx, `DELETE FROM refresh_tokens WHERE employee_id = $1`, employeeID)
	if err != nil {
		return 0, storeErr("delete refresh tokens", err)
	}
	return tag.RowsAffected(), nil
}

// RecoveryTokenRepo tokens de recuperación, una fila por empleado.
type RecoveryTokenRepo struct {
	conn
}

// NewRecoveryTokenRepository construye el adaptador.
func NewRecoveryTokenRepository(q Querier, timeout time.Duration) *RecoveryTokenRepo {
	return &RecoveryTokenRepo{conn{q: q, timeout: timeout}}
}

// Upsert inserta la fila del empleado o sobrescribe token, expiración e is_used.
// UNIQUE(employee_id) hace que dos solicitudes concurrentes terminen en una sola fila.
func (r *RecoveryTokenRepo) Upsert(ctx context.Context, t *entity.RecoveryToken) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := `
		INSERT INTO recovery_tokens (id, token, expires_at, is_used, employee_id)
		VALUES ($1, $2, $3, FALSE, $4)
		ON CONFLICT (employee_id) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, is_used = FALSE`
	if _, err := r.q.Exec(ctx, query, t.ID, t.Token, t.ExpiresAt, t.EmployeeID); err != nil {
		return storeErr("upsert recovery token", err)
	}
	return nil
}

// GetByToken busca el token de recuperación por valor exacto.
func (r *RecoveryTokenRepo) GetByToken(ctx context.Context, token string) (*entity.RecoveryToken, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var t entity.RecoveryToken
	err := r.q.QueryRow(ctx,
		`SELECT id, token, expires_at, is_used, employee_id FROM recovery_tokens WHERE token = $1`, token).
		Scan(&t.ID, &t.Token, &t.ExpiresAt, &t.IsUsed, &t.EmployeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get recovery token", err)
	}
	return &t, nil
}

// MarkUsed marca el token como usado solo si sigue vigente en la fila y no estaba usado.
func (r *RecoveryTokenRepo) MarkUsed(ctx context.Context, token string) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	tag, err := r.q.Exec(ctx,
		`UPDATE recovery_tokens SET is_used = TRUE WHERE token = $1 AND is_used = FALSE`, token)
	if err != nil {
		return false, storeErr("mark recovery token used", err)
	}
	return tag.RowsAffected() == 1, nil
}
