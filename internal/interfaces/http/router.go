package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturabodega-api/internal/application/authz"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Auth      AuthService
	Employees EmployeeService
	Customers CustomerService
	Products  ProductService
	Invoices  InvoiceService
	PDF       InvoicePDFService

	Tokens    TokenParser
	Evaluator PermissionEvaluator
	Metrics   *Metrics

	// Limitadores opcionales (nil = sin límite). LoginFailureLimiter solo cuenta logins rechazados.
	LoginLimiter        fiber.Handler
	LoginFailureLimiter fiber.Handler
	RecoveryLimiter     fiber.Handler

	// Health verifica dependencias (p. ej. ping a PostgreSQL). nil = siempre OK.
	Health func(ctx context.Context) error
}

// Router registra las rutas de la API. Cada ruta protegida exige exactamente un permiso.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", deps.Metrics.Handler())
	}
	app.Get("/health", healthHandler(deps.Health))

	api := app.Group("/api")
	perm := func(p string) fiber.Handler { return RequirePermission(deps.Evaluator, p) }

	// Auth (público salvo el cambio de contraseña)
	authHandler := NewAuthHandler(deps.Auth, deps.Metrics)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", optional(deps.LoginLimiter), optional(deps.LoginFailureLimiter), authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/recovery", optional(deps.RecoveryLimiter), authHandler.RequestRecovery)
	authGroup.Post("/recovery/redeem", authHandler.RedeemRecovery)
	authGroup.Put("/password", AuthMiddleware(deps.Tokens), perm(authz.CanRecoveryPassword), authHandler.ChangePassword)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Tokens))

	employees := protected.Group("/employees")
	employeeHandler := NewEmployeeHandler(deps.Employees, deps.Auth)
	employees.Get("/", perm(authz.CanListEmployees), employeeHandler.List)
	employees.Get("/:id", perm(authz.CanListEmployees), employeeHandler.GetByID)
	employees.Post("/", perm(authz.CanCreateEmployee), employeeHandler.Create)
	employees.Put("/:id", perm(authz.CanModifyEmployee), employeeHandler.Update)
	employees.Put("/:id/role", perm(authz.CanModifyEmployee), employeeHandler.ChangeRole)
	employees.Delete("/:id", perm(authz.CanRemoveEmployee), employeeHandler.Deactivate)
	employees.Delete("/:id/sessions", perm(authz.CanRevokeEmployeeTokens), employeeHandler.RevokeSessions)

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.Customers)
	customers.Post("/", perm(authz.CanCreateCustomer), customerHandler.Create)
	customers.Put("/:id", perm(authz.CanModifyCustomer), customerHandler.Update)
	customers.Get("/", perm(authz.CanListCustomers), customerHandler.List)
	customers.Get("/:id", perm(authz.CanListCustomers), customerHandler.GetByID)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.Products)
	products.Post("/", perm(authz.CanCreateProduct), productHandler.Create)
	products.Put("/:id", perm(authz.CanEditProduct), productHandler.Update)
	products.Get("/", perm(authz.CanListProducts), productHandler.List)
	products.Get("/:id", perm(authz.CanListProducts), productHandler.GetByID)
	products.Post("/:id/stock", perm(authz.CanEditProduct), productHandler.AddStock)
	products.Put("/:id/stock", perm(authz.CanEditProduct), productHandler.SetStock)
	products.Get("/:id/stock", perm(authz.CanListProducts), productHandler.GetStock)

	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.PDF)
	invoices.Post("/", perm(authz.CanCreateInvoice), invoiceHandler.Create)
	invoices.Get("/", perm(authz.CanListInvoices), invoiceHandler.List)
	invoices.Get("/:id", perm(authz.CanListInvoices), invoiceHandler.GetByID)
	invoices.Get("/:id/pdf", perm(authz.CanListInvoices), invoiceHandler.DownloadPDF)
}

func optional(h fiber.Handler) fiber.Handler {
	if h == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return h
}

func healthHandler(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
