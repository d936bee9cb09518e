// Package ratelimit limita intentos en los endpoints anónimos sensibles
// (login y solicitud de recuperación), por IP y por email.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/jhoicas/facturabodega-api/internal/application/dto"
)

const keyPrefix = "facturabodega:ratelimit"

// NewStore crea el almacén de contadores: Redis si redisURL no está vacío, memoria si no.
// El cierre devuelto libera el cliente Redis.
func NewStore(ctx context.Context, redisURL string) (limiter.Store, func() error, error) {
	if redisURL == "" {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          keyPrefix,
			CleanUpInterval: time.Minute,
		}), func() error { return nil }, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("ratelimit: parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ratelimit: ping redis: %w", err)
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   keyPrefix,
		MaxRetry: 3,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ratelimit: store redis: %w", err)
	}
	return store, client.Close, nil
}

// New construye un limitador con una tasa en formato "<n>-<S|M|H|D>" (p. ej. "10-M").
func New(store limiter.Store, formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: tasa %q: %w", formatted, err)
	}
	return limiter.New(store, rate), nil
}

// KeyFunc extrae la clave de conteo de la petición; "" omite ese conteo.
type KeyFunc func(c *fiber.Ctx) string

// ByIP cuenta por IP del cliente.
func ByIP(c *fiber.Ctx) string { return "ip:" + c.IP() }

// ByJSONField cuenta por el valor (en minúsculas) de un campo string del cuerpo JSON.
// Con cuerpo ilegible o campo vacío no cuenta; la validación del handler rechazará la petición.
func ByJSONField(field string) KeyFunc {
	return func(c *fiber.Ctx) string {
		var body map[string]any
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return ""
		}
		v, _ := body[field].(string)
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			return ""
		}
		return field + ":" + v
	}
}

// Middleware aplica l a cada clave (por defecto la IP). Basta con que una clave supere
// la tasa para rechazar. Si el almacén falla se deja pasar la petición.
func Middleware(l *limiter.Limiter, name string, log zerolog.Logger, keys ...KeyFunc) fiber.Handler {
	if len(keys) == 0 {
		keys = []KeyFunc{ByIP}
	}
	return func(c *fiber.Ctx) error {
		for _, keyOf := range keys {
			k := keyOf(c)
			if k == "" {
				continue
			}
			lctx, err := l.Get(c.UserContext(), name+":"+k)
			if err != nil {
				log.Warn().Err(err).Str("route", name).Msg("rate limiter no disponible")
				return c.Next()
			}
			c.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			c.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			c.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				return tooMany(c, lctx, name, log)
			}
		}
		return c.Next()
	}
}

// FailureMiddleware cuenta en l solo las respuestas 401 por la clave de key y rechaza
// cuando ya se agotaron los fallos de la ventana. Las peticiones exitosas no consumen cupo,
// así que reenviar el email ajeno con éxito no bloquea al titular.
func FailureMiddleware(l *limiter.Limiter, name string, log zerolog.Logger, key KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		k := key(c)
		if k == "" {
			return c.Next()
		}
		k = name + ":" + k
		lctx, err := l.Peek(c.UserContext(), k)
		if err != nil {
			log.Warn().Err(err).Str("route", name).Msg("rate limiter no disponible")
			return c.Next()
		}
		if lctx.Reached || lctx.Remaining == 0 {
			return tooMany(c, lctx, name, log)
		}

		err = c.Next()
		if !unauthorized(c, err) {
			return err
		}
		if _, ierr := l.Increment(c.UserContext(), k, 1); ierr != nil {
			log.Warn().Err(ierr).Str("route", name).Msg("no se pudo registrar el intento fallido")
		}
		return err
	}
}

func unauthorized(c *fiber.Ctx, err error) bool {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code == fiber.StatusUnauthorized
	}
	return c.Response().StatusCode() == fiber.StatusUnauthorized
}

func tooMany(c *fiber.Ctx, lctx limiter.Context, name string, log zerolog.Logger) error {
	retryAfter := lctx.Reset - time.Now().Unix()
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))
	log.Info().Str("route", name).Str("ip", c.IP()).Msg("límite de intentos alcanzado")
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
		Code:    "RATE_LIMITED",
		Message: "Demasiados intentos. Intente de nuevo más tarde.",
	})
}
