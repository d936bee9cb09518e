package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/domain"
)

// respondError traduce un error de dominio al status y cuerpo HTTP correspondientes.
func respondError(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	fields := toFieldResponses(domain.FieldsOf(err))
	body := dto.ErrorResponse{Fields: fields}
	status := fiber.StatusInternalServerError

	switch kind {
	case domain.KindValidation:
		status, body.Code, body.Message = fiber.StatusBadRequest, "VALIDATION", "Los datos enviados no son válidos."
	case domain.KindAuthentication:
		status, body.Code, body.Message = fiber.StatusUnauthorized, "INVALID_CREDENTIALS", firstMessage(fields, err)
	case domain.KindToken:
		status, body.Code, body.Message = fiber.StatusUnauthorized, "INVALID_TOKEN", firstMessage(fields, err)
		body.Reason = domain.TokenReasonOf(err)
	case domain.KindAuthorization:
		status, body.Code, body.Message = fiber.StatusForbidden, "FORBIDDEN", "No tiene permiso para realizar esta acción."
	case domain.KindNotFound:
		status, body.Code, body.Message = fiber.StatusNotFound, "NOT_FOUND", firstMessage(fields, err)
	case domain.KindConflict:
		status, body.Code, body.Message = fiber.StatusConflict, "CONFLICT", firstMessage(fields, err)
	case domain.KindUnavailable:
		status, body.Code, body.Message = fiber.StatusServiceUnavailable, "UNAVAILABLE", "Servicio no disponible temporalmente. Intente de nuevo."
		body.Fields = nil
	default:
		body.Code, body.Message, body.Fields = "INTERNAL", "Error interno del servidor.", nil
	}

	log := zerolog.Ctx(c.UserContext())
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("kind", kind.String()).Msg("error en la petición")
	} else {
		log.Debug().Err(err).Str("path", c.Path()).Str("kind", kind.String()).Msg("petición rechazada")
	}
	return c.Status(status).JSON(body)
}

func toFieldResponses(fields []*domain.FieldError) []dto.FieldErrorResponse {
	if len(fields) == 0 {
		return nil
	}
	out := make([]dto.FieldErrorResponse, 0, len(fields))
	for _, f := range fields {
		out = append(out, dto.FieldErrorResponse{Field: f.Field, Message: f.Message})
	}
	return out
}

func firstMessage(fields []dto.FieldErrorResponse, err error) string {
	if len(fields) > 0 {
		return fields[0].Message
	}
	// Los sentinels de dominio traen el mensaje para el usuario.
	for e := err; e != nil; {
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return e.Error()
		}
		next := u.Unwrap()
		if next == nil {
			return e.Error()
		}
		e = next
	}
	return err.Error()
}
