package ratelimit

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
)

func newApp(t *testing.T, store limiter.Store, rate string) *fiber.App {
	t.Helper()
	l, err := New(store, rate)
	require.NoError(t, err)
	app := fiber.New()
	app.Post("/login", Middleware(l, "login", zerolog.Nop()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func post(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	return resp.StatusCode
}

// ── Memoria ───────────────────────────────────────────────────────────────────

func TestMiddleware_Memoria_BloqueaAlSuperarLaTasa(t *testing.T) {
	store, closeFn, err := NewStore(context.Background(), "")
	require.NoError(t, err)
	defer closeFn()
	app := newApp(t, store, "2-M")

	assert.Equal(t, fiber.StatusOK, post(t, app))
	assert.Equal(t, fiber.StatusOK, post(t, app))
	assert.Equal(t, fiber.StatusTooManyRequests, post(t, app))
}

func TestMiddleware_Cabeceras(t *testing.T) {
	store, _, err := NewStore(context.Background(), "")
	require.NoError(t, err)
	app := newApp(t, store, "5-M")

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, "5", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", resp.Header.Get("X-RateLimit-Remaining"))
}

// ── Redis ─────────────────────────────────────────────────────────────────────

func TestMiddleware_Redis_CompartidoEntreInstancias(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()

	storeA, closeA, err := NewStore(context.Background(), url)
	require.NoError(t, err)
	defer closeA()
	storeB, closeB, err := NewStore(context.Background(), url)
	require.NoError(t, err)
	defer closeB()

	appA := newApp(t, storeA, "2-M")
	appB := newApp(t, storeB, "2-M")

	assert.Equal(t, fiber.StatusOK, post(t, appA))
	assert.Equal(t, fiber.StatusOK, post(t, appB))
	assert.Equal(t, fiber.StatusTooManyRequests, post(t, appA), "el contador vive en Redis")
}

func TestMiddleware_PorEmailAunqueCambieLaIP(t *testing.T) {
	store, _, err := NewStore(context.Background(), "")
	require.NoError(t, err)
	l, err := New(store, "1-M")
	require.NoError(t, err)
	app := fiber.New(fiber.Config{ProxyHeader: fiber.HeaderXForwardedFor})
	app.Post("/recovery", Middleware(l, "recovery", zerolog.Nop(), ByIP, ByJSONField("email")), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	send := func(ip, body string) int {
		req := httptest.NewRequest("POST", "/recovery", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(fiber.HeaderXForwardedFor, ip)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, send("10.0.0.1", `{"email":"facu@yopmail.com"}`))
	assert.Equal(t, fiber.StatusTooManyRequests, send("10.0.0.2", `{"email":"FACU@yopmail.com"}`))
	assert.Equal(t, fiber.StatusOK, send("10.0.0.3", `{"email":"otro@yopmail.com"}`))
}

// ── Solo fallos ───────────────────────────────────────────────────────────────

// newLoginApp responde 200 con la contraseña "ok" y 401 con cualquier otra.
func newLoginApp(t *testing.T, store limiter.Store, rate string) *fiber.App {
	t.Helper()
	l, err := New(store, rate)
	require.NoError(t, err)
	app := fiber.New(fiber.Config{ProxyHeader: fiber.HeaderXForwardedFor})
	app.Post("/login", FailureMiddleware(l, "login-fail", zerolog.Nop(), ByJSONField("email")), func(c *fiber.Ctx) error {
		var in struct {
			Password string `json:"password"`
		}
		if err := c.BodyParser(&in); err != nil || in.Password != "ok" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func login(t *testing.T, app *fiber.App, ip, email, pass string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"email":"`+email+`","password":"`+pass+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(fiber.HeaderXForwardedFor, ip)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestFailureMiddleware_LoginsExitososNoConsumenCupo(t *testing.T) {
	store, _, err := NewStore(context.Background(), "")
	require.NoError(t, err)
	app := newLoginApp(t, store, "2-M")

	// Otro cliente reenvía el email del titular con éxito muchas veces.
	for i := 0; i < 5; i++ {
		assert.Equal(t, fiber.StatusOK, login(t, app, "10.0.0.9", "facu@yopmail.com", "ok"))
	}
	assert.Equal(t, fiber.StatusOK, login(t, app, "10.0.0.1", "facu@yopmail.com", "ok"))
}

func TestFailureMiddleware_BloqueaTrasAgotarLosFallos(t *testing.T) {
	store, _, err := NewStore(context.Background(), "")
	require.NoError(t, err)
	app := newLoginApp(t, store, "2-M")

	assert.Equal(t, fiber.StatusUnauthorized, login(t, app, "10.0.0.1", "facu@yopmail.com", "mala"))
	assert.Equal(t, fiber.StatusUnauthorized, login(t, app, "10.0.0.2", "FACU@yopmail.com", "mala"))
	assert.Equal(t, fiber.StatusTooManyRequests, login(t, app, "10.0.0.3", "facu@yopmail.com", "ok"))

	// Otro email conserva su cupo.
	assert.Equal(t, fiber.StatusOK, login(t, app, "10.0.0.1", "otro@yopmail.com", "ok"))
}

func TestFailureMiddleware_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, closeFn, err := NewStore(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer closeFn()
	app := newLoginApp(t, store, "1-M")

	assert.Equal(t, fiber.StatusOK, login(t, app, "10.0.0.1", "facu@yopmail.com", "ok"))
	assert.Equal(t, fiber.StatusUnauthorized, login(t, app, "10.0.0.1", "facu@yopmail.com", "mala"))
	assert.Equal(t, fiber.StatusTooManyRequests, login(t, app, "10.0.0.1", "facu@yopmail.com", "ok"))
}

func TestNewStore_RedisInalcanzable(t *testing.T) {
	_, _, err := NewStore(context.Background(), "redis://127.0.0.1:1")
	assert.Error(t, err)
}

func TestNew_TasaInvalida(t *testing.T) {
	store, _, _ := NewStore(context.Background(), "")
	_, err := New(store, "diez-por-minuto")
	assert.Error(t, err)
}
