package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturabodega-api/internal/application/auth"
	"github.com/jhoicas/facturabodega-api/internal/application/authz"
	"github.com/jhoicas/facturabodega-api/internal/application/dto"
	"github.com/jhoicas/facturabodega-api/internal/domain"
	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
	pkgjwt "github.com/jhoicas/facturabodega-api/pkg/jwt"
	"github.com/jhoicas/facturabodega-api/pkg/password"
)

const (
	adminEmail = "facu@yopmail.com"
	adminPass  = "Password1234*"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	uc        *auth.AuthUseCase
	employees *memEmployees
	sessions  *memSessions
	recovery  *memRecovery
	notifier  *recordingNotifier
	signer    *pkgjwt.Signer
	clock     *clock
	hasher    *password.Hasher
}

func newFixture(t *testing.T, maxSessions int) *fixture {
	t.Helper()
	hasher, err := password.NewHasher(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	signer, err := pkgjwt.NewSigner("test-secret", "facturabodega", "clientes", 60)
	require.NoError(t, err)
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	hash, err := hasher.HashPassword("emp-admin", adminPass)
	require.NoError(t, err)
	employees := newMemEmployees(
		&entity.Employee{ID: "emp-admin", Name: "Facundo", Email: adminEmail, PasswordHash: hash, Status: entity.EmployeeActive, RoleName: entity.RoleAdmin},
	)
	sessions := &memSessions{}
	recovery := newMemRecovery()
	notifier := &recordingNotifier{}

	uc := auth.NewAuthUseCase(auth.Deps{
		Employees: employees,
		Sessions:  sessions,
		Recovery:  recovery,
		Tx:        memTx{employees: employees, recovery: recovery},
		Hasher:    hasher,
		Issuer:    auth.NewTokenIssuer(signer, 7, clk.Now),
		Evaluator: staticEvaluator{
			entity.RoleAdmin: authz.All,
			entity.RoleBasic: authz.BasicPermissions,
		},
		Notifier: notifier,
		Log:      zerolog.Nop(),
		Now:      clk.Now,
	}, auth.Config{RecoveryMinutes: 60, MaxSessions: maxSessions, NotifyTimeout: time.Second})

	return &fixture{uc: uc, employees: employees, sessions: sessions, recovery: recovery,
		notifier: notifier, signer: signer, clock: clk, hasher: hasher}
}

func (f *fixture) addEmployee(t *testing.T, id, email, pw, role, status string) {
	t.Helper()
	hash, err := f.hasher.HashPassword(id, pw)
	require.NoError(t, err)
	require.NoError(t, f.employees.Create(context.Background(), &entity.Employee{
		ID: id, Name: id, Email: email, PasswordHash: hash, Status: status, RoleName: role,
	}))
}

// ── Login ─────────────────────────────────────────────────────────────────────

func TestLogin_EmiteParYPersisteSesion(t *testing.T) {
	f := newFixture(t, 5)
	require.Zero(t, f.sessions.count("emp-admin"))
	pair, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
	require.NoError(t, err)
	assert.Equal(t, 1, f.sessions.count("emp-admin"))

	claims, err := f.signer.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "emp-admin", claims.Subject)
	assert.Equal(t, adminEmail, claims.Email)
	assert.Equal(t, entity.RoleAdmin, claims.Role)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, f.clock.Now().Add(7*24*time.Hour), pair.RefreshExpiresAt)

	stored, err := f.sessions.GetByToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "emp-admin", stored.EmployeeID)
}

func TestLogin_EmailDesconocidoYContrasenaIncorrectaSonDistintos(t *testing.T) {
	f := newFixture(t, 5)

	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@yopmail.com", Password: adminPass})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmailNotRegistered)
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))
	assert.Equal(t, "email", domain.FieldsOf(err)[0].Field)

	_, err = f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: "Password1234!"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncorrectPassword)
	assert.Equal(t, "password", domain.FieldsOf(err)[0].Field)
	assert.Zero(t, f.sessions.count("emp-admin"))
}

func TestLogin_EmpleadoInactivoRechazado(t *testing.T) {
	f := newFixture(t, 5)
	f.addEmployee(t, "emp-old", "old@yopmail.com", adminPass, entity.RoleBasic, entity.EmployeeInactive)

	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: "old@yopmail.com", Password: adminPass})
	assert.ErrorIs(t, err, domain.ErrEmployeeInactive)
}

func TestLogin_DepuraSesionesSobreElTope(t *testing.T) {
	f := newFixture(t, 2)
	for i := 0; i < 4; i++ {
		_, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}
	assert.Equal(t, 2, f.sessions.count("emp-admin"))
}

// Bajo el tope cada login agrega exactamente una sesión.
func TestLogin_CadaLoginAgregaUnaSesion(t *testing.T) {
	f := newFixture(t, 5)
	for n := 0; n < 5; n++ {
		require.Equal(t, n, f.sessions.count("emp-admin"))
		_, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
		require.NoError(t, err)
		assert.Equal(t, n+1, f.sessions.count("emp-admin"))
		f.clock.Advance(time.Minute)
	}
}

// Una sesión que se sigue refrescando cuenta como reciente al depurar.
func TestLogin_DepuracionConservaLaSesionRefrescada(t *testing.T) {
	f := newFixture(t, 2)
	login := func() *dto.TokenPairResponse {
		pair, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
		return pair
	}
	first := login()
	second := login()

	refreshed, err := f.uc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	login()

	assert.Equal(t, 2, f.sessions.count("emp-admin"))
	kept, err := f.sessions.GetByToken(context.Background(), refreshed.RefreshToken)
	require.NoError(t, err)
	assert.NotNil(t, kept)
	gone, err := f.sessions.GetByToken(context.Background(), second.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

// El hash va ligado al id del empleado: cambiar el email no invalida la contraseña.
func TestLogin_CambioDeEmailConservaLaContrasena(t *testing.T) {
	f := newFixture(t, 5)
	emp, err := f.employees.GetByID(context.Background(), "emp-admin")
	require.NoError(t, err)
	emp.Email = "facu.nuevo@yopmail.com"
	require.NoError(t, f.employees.Update(context.Background(), emp))

	_, err = f.uc.Login(context.Background(), dto.LoginRequest{Email: "facu.nuevo@yopmail.com", Password: adminPass})
	assert.NoError(t, err)
	_, err = f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
	assert.ErrorIs(t, err, domain.ErrEmailNotRegistered)
}

// Un fallo al depurar no invalida el login.
func TestLogin_FalloDeDepuracionNoEsFatal(t *testing.T) {
	f := newFixture(t, 2)
	f.sessions.pruneErr = domain.ErrUnavailable
	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
	assert.NoError(t, err)
}

// ── Refresh ───────────────────────────────────────────────────────────────────

func TestRefresh_RotaElToken(t *testing.T) {
	f := newFixture(t, 5)
	first, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
	require.NoError(t, err)

	second, err := f.uc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// El token anterior ya no existe.
	_, err = f.uc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	assert.Equal(t, domain.TokenReasonInvalid, domain.TokenReasonOf(err))

	_, err = f.uc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: second.RefreshToken})
	assert.NoError(t, err)
	assert.Equal(t, 1, f.sessions.count("emp-admin"))
}

func TestRefresh_TokenExpiradoTieneMotivoPropio(t *testing.T) {
	f := newFixture(t, 5)
	pair, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)
	got, err := f.uc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, domain.TokenReasonExpired, domain.TokenReasonOf(err))
	assert.Equal(t, "El token para refrescar ha expirado.", domain.FieldsOf(err)[0].Message)

	// Sin filas nuevas ni rotación: la sesión conserva el token original.
	assert.Equal(t, 1, f.sessions.count("emp-admin"))
	stored, err := f.sessions.GetByToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, pair.RefreshExpiresAt, stored.ExpiresAt)
}

// Dos refrescos concurrentes con el mismo token: exactamente uno gana.
func TestRefresh_ConcurrenteSoloUnoGana(t *testing.T) {
	f := newFixture(t, 5)
	pair, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: pair.RefreshToken})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	}
	assert.Equal(t, 1, ok)
}

func TestRefresh_RolSinPermisoDeRefresco(t *testing.T) {
	f := newFixture(t, 5)
	f.addEmployee(t, "emp-guest", "guest@yopmail.com", adminPass, "GUEST", entity.EmployeeActive)
	pair, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: "guest@yopmail.com", Password: adminPass})
	require.NoError(t, err)

	_, err = f.uc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// El par refrescado lleva el rol vigente del empleado, no el del login.
func TestRefresh_UsaElRolActual(t *testing.T) {
	f := newFixture(t, 5)
	f.addEmployee(t, "emp-b", "b@yopmail.com", adminPass, entity.RoleBasic, entity.EmployeeActive)
	pair, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: "b@yopmail.com", Password: adminPass})
	require.NoError(t, err)

	f.employees.rows["emp-b"].RoleName = entity.RoleAdmin
	next, err := f.uc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	claims, err := f.signer.Parse(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, claims.Role)
}

// ── Recuperación ─────────────────────────────────────────────────────────────

func requestAndCaptureToken(t *testing.T, f *fixture) string {
	t.Helper()
	before := f.notifier.count()
	require.NoError(t, f.uc.RequestRecovery(context.Background(), dto.RecoveryRequest{Email: adminEmail}))
	require.NoError(t, f.uc.Drain(context.Background()))
	require.Equal(t, before+1, f.notifier.count())
	msg := f.notifier.last()
	assert.Equal(t, "Recuperación de contraseña", msg.Subject)
	assert.Equal(t, adminEmail, msg.ToAddress)

	start := strings.Index(msg.HTMLBody, "<strong>") + len("<strong>")
	end := strings.Index(msg.HTMLBody, "</strong>")
	require.True(t, start > 0 && end > start)
	return msg.HTMLBody[start:end]
}

func TestRecovery_FlujoCompleto(t *testing.T) {
	f := newFixture(t, 5)
	token := requestAndCaptureToken(t, f)

	err := f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: token, NewPassword: "Nueva123*x"})
	require.NoError(t, err)

	_, err = f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: "Nueva123*x"})
	assert.NoError(t, err)
	_, err = f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
	assert.ErrorIs(t, err, domain.ErrIncorrectPassword)
}

func TestRecovery_EmailNoRegistrado(t *testing.T) {
	f := newFixture(t, 5)
	err := f.uc.RequestRecovery(context.Background(), dto.RecoveryRequest{Email: "nadie@yopmail.com"})
	assert.ErrorIs(t, err, domain.ErrEmailNotRegistered)
	assert.Zero(t, f.notifier.count())
}

// El fallo del correo se registra pero no falla la solicitud; el token queda persistido.
func TestRecovery_FalloDeNotificacionNoEsFatal(t *testing.T) {
	f := newFixture(t, 5)
	f.notifier.err = errSMTP
	require.NoError(t, f.uc.RequestRecovery(context.Background(), dto.RecoveryRequest{Email: adminEmail}))
	require.NoError(t, f.uc.Drain(context.Background()))
	assert.Len(t, f.recovery.rows, 1)
	assert.Zero(t, f.notifier.count())
}

// Un SMTP lento no retrasa la respuesta; el correo llega igual aunque la petición ya terminó.
func TestRecovery_NotificadorLentoNoDemoraLaRespuesta(t *testing.T) {
	f := newFixture(t, 5)
	f.notifier.delay = 300 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	require.NoError(t, f.uc.RequestRecovery(ctx, dto.RecoveryRequest{Email: adminEmail}))
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	cancel()
	assert.Zero(t, f.notifier.count())

	require.NoError(t, f.uc.Drain(context.Background()))
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, adminEmail, f.notifier.last().ToAddress)
}

func TestDrain_RespetaElPlazo(t *testing.T) {
	f := newFixture(t, 5)
	f.notifier.delay = 500 * time.Millisecond
	require.NoError(t, f.uc.RequestRecovery(context.Background(), dto.RecoveryRequest{Email: adminEmail}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.uc.Drain(ctx), context.DeadlineExceeded)
	require.NoError(t, f.uc.Drain(context.Background()))
}

func TestRecovery_DosSolicitudesDejanUnaFilaYAnulanLaPrimera(t *testing.T) {
	f := newFixture(t, 5)
	first := requestAndCaptureToken(t, f)
	second := requestAndCaptureToken(t, f)
	assert.NotEqual(t, first, second)
	assert.Len(t, f.recovery.rows, 1)

	err := f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: first, NewPassword: "Nueva123*x"})
	assert.Equal(t, domain.TokenReasonInvalid, domain.TokenReasonOf(err))

	err = f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: second, NewPassword: "Nueva123*x"})
	assert.NoError(t, err)
}

func TestRedeem_MotivosDistintos(t *testing.T) {
	f := newFixture(t, 5)
	token := requestAndCaptureToken(t, f)

	err := f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: token + "x", NewPassword: "Nueva123*x"})
	assert.Equal(t, domain.TokenReasonInvalid, domain.TokenReasonOf(err))
	assert.Equal(t, "El token de recuperación es inválido.", domain.FieldsOf(err)[0].Message)

	require.NoError(t, f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: token, NewPassword: "Nueva123*x"}))
	err = f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: token, NewPassword: "Otra123*xy"})
	assert.Equal(t, domain.TokenReasonUsed, domain.TokenReasonOf(err))
	assert.Equal(t, "El token de recuperación ya ha sido utilizado.", domain.FieldsOf(err)[0].Message)
}

func TestRedeem_Expirado(t *testing.T) {
	f := newFixture(t, 5)
	token := requestAndCaptureToken(t, f)
	f.recovery.expire("emp-admin", f.clock.Now().Add(-time.Second))

	err := f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: token, NewPassword: "Nueva123*x"})
	assert.Equal(t, domain.TokenReasonExpired, domain.TokenReasonOf(err))
}

func TestRedeem_ContrasenaDebilNoConsumeElToken(t *testing.T) {
	f := newFixture(t, 5)
	token := requestAndCaptureToken(t, f)

	err := f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: token, NewPassword: "corta"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	assert.NoError(t, f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: token, NewPassword: "Nueva123*x"}))
}

func TestRedeem_ConcurrenteSoloUnoGana(t *testing.T) {
	f := newFixture(t, 5)
	token := requestAndCaptureToken(t, f)

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.uc.RedeemRecovery(context.Background(), dto.RedeemRecoveryRequest{Token: token, NewPassword: "Nueva123*x"})
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, domain.TokenReasonUsed, domain.TokenReasonOf(err))
	}
	assert.Equal(t, 1, ok)
}

// ── Cambio de contraseña ─────────────────────────────────────────────────────

func TestChangePassword(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	err := f.uc.ChangePassword(ctx, "emp-admin", dto.ChangePasswordRequest{CurrentPassword: "Mala1234*", NewPassword: "Nueva123*x"})
	assert.ErrorIs(t, err, domain.ErrIncorrectPassword)

	err = f.uc.ChangePassword(ctx, "emp-admin", dto.ChangePasswordRequest{CurrentPassword: adminPass, NewPassword: adminPass})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	err = f.uc.ChangePassword(ctx, "emp-admin", dto.ChangePasswordRequest{CurrentPassword: adminPass, NewPassword: "débil"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	err = f.uc.ChangePassword(ctx, "no-existe", dto.ChangePasswordRequest{CurrentPassword: adminPass, NewPassword: "Nueva123*x"})
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)

	before := f.employees.hash("emp-admin")
	require.NoError(t, f.uc.ChangePassword(ctx, "emp-admin", dto.ChangePasswordRequest{CurrentPassword: adminPass, NewPassword: "Nueva123*x"}))
	assert.NotEqual(t, before, f.employees.hash("emp-admin"))
	assert.True(t, f.hasher.VerifyHashedPassword("emp-admin", f.employees.hash("emp-admin"), "Nueva123*x"))
}

func TestRevokeSessions(t *testing.T) {
	f := newFixture(t, 5)
	for i := 0; i < 3; i++ {
		_, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: adminEmail, Password: adminPass})
		require.NoError(t, err)
	}
	n, err := f.uc.RevokeSessions(context.Background(), "emp-admin")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Zero(t, f.sessions.count("emp-admin"))

	_, err = f.uc.RevokeSessions(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
}
