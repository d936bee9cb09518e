package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	pkgjwt "github.com/jhoicas/facturabodega-api/pkg/jwt"
)

// Locals keys con los claims del token de acceso.
const (
	LocalEmployeeID = "employee_id"
	LocalEmail      = "email"
	LocalRole       = "role"
)

// TokenParser valida un token de acceso (lo implementa jwt.Signer).
type TokenParser interface {
	Parse(token string) (*pkgjwt.Claims, error)
}

// PermissionEvaluator decide si un rol tiene un permiso (lo implementa authz.Registry).
type PermissionEvaluator interface {
	Evaluate(role, permission string) bool
}

// AuthMiddleware valida el Bearer Token y deja sujeto, email y rol en c.Locals.
func AuthMiddleware(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := tokens.Parse(tokenString)
		if err != nil || claims.Subject == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalEmployeeID, claims.Subject)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// RequirePermission exige que el rol del token tenga permission. Debe ir después de AuthMiddleware.
// La denegación es terminal: el handler no se ejecuta.
func RequirePermission(evaluator PermissionEvaluator, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no contiene rol"})
		}
		if !evaluator.Evaluate(role, permission) {
			zerolog.Ctx(c.UserContext()).Info().
				Str("employee_id", GetEmployeeID(c)).Str("role", role).Str("permission", permission).
				Msg("acceso denegado")
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "No tiene permiso para realizar esta acción."})
		}
		return c.Next()
	}
}

// GetEmployeeID devuelve el sujeto del token (después de AuthMiddleware).
func GetEmployeeID(c *fiber.Ctx) string { return localString(c, LocalEmployeeID) }

// GetEmail devuelve el email del token.
func GetEmail(c *fiber.Ctx) string { return localString(c, LocalEmail) }

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}
