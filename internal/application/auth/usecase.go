package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/facturabodega-api/internal/application/authz"
	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/application/ports"
	"github.com/jhoicas/facturabodega-api/internal/domain"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
	"github.com/jhoicas/facturabodega-api/pkg/password"
)

var tracer = otel.Tracer("github.com/jhoicas/facturabodega-api/internal/application/auth")

// Config políticas de sesión y recuperación.
type Config struct {
	RecoveryMinutes int
	// MaxSessions máximo de tokens de refresco vigentes por empleado; 0 = sin tope.
	MaxSessions   int
	NotifyTimeout time.Duration
}

// Deps colaboradores del caso de uso.
type Deps struct {
	Employees repository.EmployeeRepository
	Sessions  repository.RefreshTokenRepository
	Recovery  repository.RecoveryTokenRepository
	Tx        AuthTxRunner
	Hasher    PasswordHasher
	Issuer    *TokenIssuer
	Evaluator PermissionEvaluator
	Notifier  ports.Notifier
	Log       zerolog.Logger
	Now       func() time.Time
}

// AuthUseCase flujos de login, refresco, recuperación y cambio de contraseña.
type AuthUseCase struct {
	Deps
	cfg     Config
	pending sync.WaitGroup
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(d Deps, cfg Config) *AuthUseCase {
	if d.Now == nil {
		d.Now = time.Now
	}
	if cfg.RecoveryMinutes <= 0 {
		cfg.RecoveryMinutes = 60
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 15 * time.Second
	}
	return &AuthUseCase{Deps: d, cfg: cfg}
}

// Login verifica email y contraseña, emite el par de tokens y persiste una nueva sesión.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (_ *dto.TokenPairResponse, err error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer func() {
		if domain.KindOf(err) == domain.KindAuthentication {
			uc.Log.Info().Err(err).Msg("login rechazado")
		}
		endSpan(span, err)
	}()

	emp, err := uc.Employees.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if emp == nil {
		return nil, domain.NewFieldError("email", domain.ErrEmailNotRegistered, "")
	}
	if !uc.Hasher.VerifyHashedPassword(emp.ID, emp.PasswordHash, in.Password) {
		return nil, domain.NewFieldError("password", domain.ErrIncorrectPassword, "")
	}
	if !emp.IsActive() {
		return nil, domain.NewFieldError("email", domain.ErrEmployeeInactive, "")
	}
	span.SetAttributes(attribute.String("employee.id", emp.ID))

	pair, err := uc.issuePair(emp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	now := uc.Now()
	session := &entity.RefreshToken{
		ID:         uuid.New().String(),
		Token:      pair.RefreshToken,
		ExpiresAt:  pair.RefreshExpiresAt,
		EmployeeID: emp.ID,
		CreatedAt:  now,
	}
	if err := uc.Sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("login: guardar sesión: %w", err)
	}
	if uc.cfg.MaxSessions > 0 {
		if n, err := uc.Sessions.PruneForEmployee(ctx, emp.ID, now, uc.cfg.MaxSessions); err != nil {
			uc.Log.Warn().Err(err).Str("employee_id", emp.ID).Msg("no se pudieron depurar sesiones antiguas")
		} else if n > 0 {
			uc.Log.Debug().Int64("deleted", n).Str("employee_id", emp.ID).Msg("sesiones depuradas")
		}
	}
	return pair, nil
}

// Refresh rota el token de refresco presentado y emite un nuevo par con el rol vigente del empleado.
func (uc *AuthUseCase) Refresh(ctx context.Context, in dto.RefreshRequest) (_ *dto.TokenPairResponse, err error) {
	ctx, span := tracer.Start(ctx, "auth.Refresh")
	defer func() { endSpan(span, err) }()

	current, err := uc.Sessions.GetByToken(ctx, in.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if current == nil {
		return nil, domain.NewFieldError("refresh_token", domain.ErrTokenInvalid, "El token para refrescar proporcionado no es válido.")
	}
	if current.Expired(uc.Now()) {
		return nil, domain.NewFieldError("refresh_token", domain.ErrTokenExpired, "El token para refrescar ha expirado.")
	}

	emp, err := uc.Employees.GetByID(ctx, current.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if emp == nil {
		return nil, domain.ErrEmployeeNotFound
	}
	if !emp.IsActive() {
		return nil, domain.NewFieldError("refresh_token", domain.ErrEmployeeInactive, "")
	}
	if !uc.Evaluator.Evaluate(emp.RoleName, authz.CanRefreshToken) {
		return nil, domain.ErrForbidden
	}
	span.SetAttributes(attribute.String("employee.id", emp.ID))

	pair, err := uc.issuePair(emp)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	rotated, err := uc.Sessions.Rotate(ctx, current.Token, pair.RefreshToken, pair.RefreshExpiresAt, uc.Now())
	if err != nil {
		return nil, fmt.Errorf("refresh: rotar sesión: %w", err)
	}
	if !rotated {
		// Otra rotación concurrente ya consumió el token presentado.
		return nil, domain.NewFieldError("refresh_token", domain.ErrTokenInvalid, "El token para refrescar proporcionado no es válido.")
	}
	return pair, nil
}

// ChangePassword cambia la contraseña del empleado autenticado verificando la actual.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, employeeID string, in dto.ChangePasswordRequest) (err error) {
	ctx, span := tracer.Start(ctx, "auth.ChangePassword")
	defer func() { endSpan(span, err) }()

	var v domain.ValidationError
	for _, p := range password.CheckStrength(in.NewPassword) {
		v.Add("new_password", p)
	}
	if in.NewPassword == in.CurrentPassword {
		v.Add("new_password", "La nueva contraseña debe ser diferente a la actual.")
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	emp, err := uc.Employees.GetByID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if emp == nil {
		return domain.ErrEmployeeNotFound
	}
	if !uc.Hasher.VerifyHashedPassword(emp.ID, emp.PasswordHash, in.CurrentPassword) {
		return domain.NewFieldError("current_password", domain.ErrIncorrectPassword, "")
	}
	hash, err := uc.Hasher.HashPassword(emp.ID, in.NewPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := uc.Employees.UpdatePassword(ctx, emp.ID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// RevokeSessions elimina todas las sesiones de un empleado.
func (uc *AuthUseCase) RevokeSessions(ctx context.Context, employeeID string) (int64, error) {
	emp, err := uc.Employees.GetByID(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	if emp == nil {
		return 0, domain.ErrEmployeeNotFound
	}
	n, err := uc.Sessions.DeleteByEmployee(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	uc.Log.Info().Str("employee_id", employeeID).Int64("deleted", n).Msg("sesiones revocadas")
	return n, nil
}

func (uc *AuthUseCase) issuePair(emp *entity.Employee) (*dto.TokenPairResponse, error) {
	access, accessExp, err := uc.Issuer.CreateAccessToken(AccessClaims{
		Subject: emp.ID,
		Email:   emp.Email,
		Role:    emp.RoleName,
	})
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := uc.Issuer.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairResponse{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		TokenType:        "Bearer",
	}, nil
}

// endSpan registra el error en el span; los rechazos de dominio no se marcan como error.
func endSpan(span trace.Span, err error) {
	if err != nil {
		kind := domain.KindOf(err)
		span.SetAttributes(attribute.String("error.kind", kind.String()))
		if kind == domain.KindInternal || kind == domain.KindUnavailable {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
