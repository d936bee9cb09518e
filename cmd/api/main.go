package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/facturabodega-api/internal/application/auth"
	"github.com/jhoicas/facturabodega-api/internal/application/authz"
	"github.com/jhoicas/facturabodega-api/internal/application/billing"
	"github.com/jhoicas/facturabodega-api/internal/application/usecase"
	"github.com/jhoicas/facturabodega-api/internal/infrastructure/notification"
	infrapdf "github.com/jhoicas/facturabodega-api/internal/infrastructure/pdf"
	"github.com/jhoicas/facturabodega-api/internal/infrastructure/postgres"
	"github.com/jhoicas/facturabodega-api/internal/infrastructure/ratelimit"
	"github.com/jhoicas/facturabodega-api/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/facturabodega-api/internal/interfaces/http"
	"github.com/jhoicas/facturabodega-api/pkg/config"
	pkgjwt "github.com/jhoicas/facturabodega-api/pkg/jwt"
	"github.com/jhoicas/facturabodega-api/pkg/logger"
	"github.com/jhoicas/facturabodega-api/pkg/password"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	shutdownTracing := telemetry.Setup(ctx, cfg.App.Name, cfg.App.Env, cfg.Telemetry, log.Component("telemetry"))

	pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	timeout := cfg.DB.QueryTimeout
	employeeRepo := postgres.NewEmployeeRepository(pool, timeout)
	roleRepo := postgres.NewRoleRepository(pool, timeout)
	sessionRepo := postgres.NewRefreshTokenRepository(pool, timeout)
	recoveryRepo := postgres.NewRecoveryTokenRepository(pool, timeout)
	customerRepo := postgres.NewCustomerRepository(pool, timeout)
	productRepo := postgres.NewProductRepository(pool, timeout)
	invoiceRepo := postgres.NewInvoiceRepository(pool, timeout)
	txRunner := postgres.NewTxRunner(pool, timeout)

	// Catálogo de permisos: sin él toda ruta protegida se deniega.
	registry := authz.NewRegistry(roleRepo, log.Component("authz"))
	if err := registry.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo de permisos")
	}

	signer, err := pkgjwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.Expiration)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar firmador JWT")
	}
	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("configurar hasher de contraseñas")
	}
	notifier := notification.New(cfg.SMTP, log.Component("notification"))

	authUC := auth.NewAuthUseCase(auth.Deps{
		Employees: employeeRepo,
		Sessions:  sessionRepo,
		Recovery:  recoveryRepo,
		Tx:        txRunner,
		Hasher:    hasher,
		Issuer:    auth.NewTokenIssuer(signer, cfg.Auth.RefreshDays, time.Now),
		Evaluator: registry,
		Notifier:  notifier,
		Log:       log.Component("auth"),
		Now:       time.Now,
	}, auth.Config{
		RecoveryMinutes: cfg.Auth.RecoveryMinutes,
		MaxSessions:     cfg.Auth.MaxSessions,
		NotifyTimeout:   15 * time.Second,
	})
	employeeUC := usecase.NewEmployeeUseCase(employeeRepo, roleRepo, sessionRepo, hasher, notifier, log.Component("employees"))
	productUC := usecase.NewProductUseCase(productRepo)
	customerUC := billing.NewCustomerUseCase(customerRepo)
	createInvoiceUC := billing.NewCreateInvoiceUseCase(txRunner, customerRepo, productRepo, invoiceRepo, log.Component("billing"))
	invoicePDFUC := billing.NewPDFUseCase(invoiceRepo, customerRepo, infrapdf.NewMarotoPDFGenerator(cfg.App.Name))

	// Límite de intentos compartido entre réplicas si hay Redis.
	limitStore, closeStore, err := ratelimit.NewStore(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar almacén del limitador")
	}
	defer closeStore()
	limitLog := log.Component("ratelimit")
	loginLimiter, err := ratelimit.New(limitStore, cfg.RateLimit.Login)
	if err != nil {
		log.Fatal().Err(err).Msg("límite de login")
	}
	loginFailureLimiter, err := ratelimit.New(limitStore, cfg.RateLimit.LoginFailures)
	if err != nil {
		log.Fatal().Err(err).Msg("límite de logins fallidos")
	}
	recoveryLimiter, err := ratelimit.New(limitStore, cfg.RateLimit.Recovery)
	if err != nil {
		log.Fatal().Err(err).Msg("límite de recuperación")
	}

	metrics := httpRouter.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ProxyHeader:  cfg.HTTP.ProxyHeader,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))
	app.Use(metrics.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "FacturaBodega API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Auth:         authUC,
		Employees:    employeeUC,
		Customers:    customerUC,
		Products:     productUC,
		Invoices:     createInvoiceUC,
		PDF:          invoicePDFUC,
		Tokens:       signer,
		Evaluator:    registry,
		Metrics:      metrics,
		LoginLimiter: ratelimit.Middleware(loginLimiter, "login", limitLog, ratelimit.ByIP),
		// Por email solo cuentan los fallos: un tercero no agota el cupo del titular.
		LoginFailureLimiter: ratelimit.FailureMiddleware(loginFailureLimiter, "login-fail", limitLog,
			ratelimit.ByJSONField("email")),
		RecoveryLimiter: ratelimit.Middleware(recoveryLimiter, "recovery", limitLog,
			ratelimit.ByIP, ratelimit.ByJSONField("email")),
		Health: pool.Ping,
	})

	// SIGHUP recarga el catálogo de permisos sin reiniciar; si falla sigue vigente el anterior.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			reloadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := registry.Load(reloadCtx); err != nil {
				log.Error().Err(err).Msg("recarga del catálogo de permisos")
			}
			cancel()
		}
	}()

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := authUC.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("correos de recuperación pendientes sin enviar")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del exportador de trazas")
	}
	signal.Stop(reload)

	log.Info().Msg("aplicación detenida")
}
