package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturabodega-api/internal/application/auth"
	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/domain"
)

// AuthService flujos de autenticación (lo implementa auth.AuthUseCase).
type AuthService interface {
	Login(ctx context.Context, in dto.LoginRequest) (*dto.TokenPairResponse, error)
	Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.TokenPairResponse, error)
	RequestRecovery(ctx context.Context, in dto.RecoveryRequest) error
	RedeemRecovery(ctx context.Context, in dto.RedeemRecoveryRequest) error
	ChangePassword(ctx context.Context, employeeID string, in dto.ChangePasswordRequest) error
	RevokeSessions(ctx context.Context, employeeID string) (int64, error)
}

var _ AuthService = (*auth.AuthUseCase)(nil)

// AuthHandler maneja login, refresh, recuperación y cambio de contraseña.
type AuthHandler struct {
	uc      AuthService
	metrics *Metrics
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc AuthService, metrics *Metrics) *AuthHandler {
	return &AuthHandler{uc: uc, metrics: metrics}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email y password"
// @Success      200   {object}  dto.TokenPairResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	pair, err := h.uc.Login(c.UserContext(), in)
	h.metrics.AuthOutcome("login", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pair)
}

// Refresh godoc
// @Summary      Rotar el token de refresco
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RefreshRequest  true  "refresh_token"
// @Success      200   {object}  dto.TokenPairResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var in dto.RefreshRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	pair, err := h.uc.Refresh(c.UserContext(), in)
	h.metrics.AuthOutcome("refresh", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pair)
}

// RequestRecovery godoc
// @Summary      Solicitar recuperación de contraseña
// @Description  La respuesta es la misma exista o no el correo.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecoveryRequest  true  "email"
// @Success      200   {object}  dto.MessageResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/auth/recovery [post]
func (h *AuthHandler) RequestRecovery(c *fiber.Ctx) error {
	var in dto.RecoveryRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	err := h.uc.RequestRecovery(c.UserContext(), in)
	h.metrics.AuthOutcome("recovery", err)
	if err != nil && !errors.Is(err, domain.ErrEmailNotRegistered) {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: auth.RecoveryAck})
}

// RedeemRecovery godoc
// @Summary      Restablecer contraseña con el token de recuperación
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RedeemRecoveryRequest  true  "token y new_password"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/recovery/redeem [post]
func (h *AuthHandler) RedeemRecovery(c *fiber.Ctx) error {
	var in dto.RedeemRecoveryRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	err := h.uc.RedeemRecovery(c.UserContext(), in)
	h.metrics.AuthOutcome("redeem", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "La contraseña se ha restablecido correctamente."})
}

// ChangePassword godoc
// @Summary      Cambiar la contraseña propia
// @Description  Aplica al empleado del token; exige la contraseña actual.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ChangePasswordRequest  true  "current_password y new_password"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/password [put]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in dto.ChangePasswordRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	err := h.uc.ChangePassword(c.UserContext(), GetEmployeeID(c), in)
	h.metrics.AuthOutcome("password", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "La contraseña se ha actualizado correctamente."})
}
