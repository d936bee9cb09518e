package auth

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/application/ports"
	"github.com/jhoicas/facturabodega-api/internal/domain"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
	"github.com/jhoicas/facturabodega-api/pkg/password"
)

const recoverySubject = "Recuperación de contraseña"

// RecoveryAck respuesta genérica de la solicitud de recuperación; no confirma si la cuenta existe.
const RecoveryAck = "Si el correo electrónico proporcionado está registrado, se ha enviado un correo con las instrucciones para restablecer la contraseña."

// Mensajes de rechazo del token de recuperación.
const (
	msgRecoveryInvalid = "El token de recuperación es inválido."
	msgRecoveryExpired = "El token de recuperación ha expirado."
	msgRecoveryUsed    = "El token de recuperación ya ha sido utilizado."
)

// RequestRecovery genera un token de recuperación, sobrescribe el del empleado y lo envía por correo
// en segundo plano.
// Si el email no existe devuelve ErrEmailNotRegistered; la capa HTTP decide cómo exponerlo.
func (uc *AuthUseCase) RequestRecovery(ctx context.Context, in dto.RecoveryRequest) (err error) {
	ctx, span := tracer.Start(ctx, "auth.RequestRecovery")
	defer func() { endSpan(span, err) }()

	emp, err := uc.Employees.GetByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("recovery: %w", err)
	}
	if emp == nil {
		return domain.NewFieldError("email", domain.ErrEmailNotRegistered, "")
	}
	span.SetAttributes(attribute.String("employee.id", emp.ID))

	token, expiresAt, err := uc.Issuer.GenerateRecoveryToken(uc.cfg.RecoveryMinutes)
	if err != nil {
		return fmt.Errorf("recovery: %w", err)
	}
	// El upsert por employee_id garantiza una sola fila por empleado.
	if err := uc.Recovery.Upsert(ctx, &entity.RecoveryToken{
		ID:         uuid.New().String(),
		Token:      token,
		ExpiresAt:  expiresAt,
		IsUsed:     false,
		EmployeeID: emp.ID,
	}); err != nil {
		return fmt.Errorf("recovery: guardar token: %w", err)
	}

	// El envío corre fuera de la petición: un SMTP lento no retrasa la respuesta.
	msg := ports.Message{
		ToAddress: emp.Email,
		ToName:    emp.Name,
		Subject:   recoverySubject,
		HTMLBody:  recoveryBody(emp.Name, token, uc.cfg.RecoveryMinutes),
	}
	sendCtx := context.WithoutCancel(ctx)
	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()
		uc.sendRecovery(sendCtx, emp.ID, msg)
	}()
	return nil
}

func (uc *AuthUseCase) sendRecovery(ctx context.Context, employeeID string, msg ports.Message) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.NotifyTimeout)
	defer cancel()
	if err := uc.Notifier.Send(ctx, msg); err != nil {
		uc.Log.Error().Err(err).Str("employee_id", employeeID).Msg("no se pudo enviar el correo de recuperación")
		return
	}
	uc.Log.Info().Str("employee_id", employeeID).Msg("token de recuperación enviado")
}

// Drain espera los correos en curso hasta que terminen o venza ctx.
func (uc *AuthUseCase) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RedeemRecovery canjea el token de recuperación y reemplaza la contraseña del empleado.
// Orden de rechazo: inválido, expirado, usado.
func (uc *AuthUseCase) RedeemRecovery(ctx context.Context, in dto.RedeemRecoveryRequest) (err error) {
	ctx, span := tracer.Start(ctx, "auth.RedeemRecovery")
	defer func() { endSpan(span, err) }()

	var v domain.ValidationError
	for _, p := range password.CheckStrength(in.NewPassword) {
		v.Add("new_password", p)
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	rt, err := uc.Recovery.GetByToken(ctx, in.Token)
	if err != nil {
		return fmt.Errorf("redeem: %w", err)
	}
	if rt == nil {
		return domain.NewFieldError("token", domain.ErrTokenInvalid, msgRecoveryInvalid)
	}
	if rt.Expired(uc.Now()) {
		return domain.NewFieldError("token", domain.ErrTokenExpired, msgRecoveryExpired)
	}
	if rt.IsUsed {
		return domain.NewFieldError("token", domain.ErrTokenUsed, msgRecoveryUsed)
	}

	return uc.Tx.RunAuth(ctx, func(employees repository.EmployeeRepository, recovery repository.RecoveryTokenRepository) error {
		emp, err := employees.GetByID(ctx, rt.EmployeeID)
		if err != nil {
			return fmt.Errorf("redeem: %w", err)
		}
		if emp == nil {
			return domain.ErrEmployeeNotFound
		}
		marked, err := recovery.MarkUsed(ctx, rt.Token)
		if err != nil {
			return fmt.Errorf("redeem: marcar token: %w", err)
		}
		if !marked {
			// Otro canje concurrente consumió el token, o fue sobrescrito por una nueva solicitud.
			return domain.NewFieldError("token", domain.ErrTokenUsed, msgRecoveryUsed)
		}
		hash, err := uc.Hasher.HashPassword(emp.ID, in.NewPassword)
		if err != nil {
			return fmt.Errorf("redeem: %w", err)
		}
		if err := employees.UpdatePassword(ctx, emp.ID, hash); err != nil {
			return fmt.Errorf("redeem: %w", err)
		}
		uc.Log.Info().Str("employee_id", emp.ID).Msg("contraseña restablecida por recuperación")
		return nil
	})
}

func recoveryBody(name, token string, minutes int) string {
	return fmt.Sprintf(
		"<p>Hola %s,</p><p>Has solicitado recuperar tu contraseña. Por eso toma este token para que continues el proceso.</p>"+
			"<p><strong>%s</strong></p><p>El token es válido durante %d minutos.</p>"+
			"<p>Si no solicitaste este proceso, por favor ignora este correo.</p>",
		html.EscapeString(name), html.EscapeString(token), minutes)
}
