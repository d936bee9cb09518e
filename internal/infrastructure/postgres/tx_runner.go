package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/facturabodega-api/internal/application/auth"
	"github.com/jhoicas/facturabodega-api/internal/application/billing"
	"github.com/jhoicas/facturabodega-api/internal/domain/repository"
)

var (
	_ auth.AuthTxRunner       = (*TxRunner)(nil)
	_ billing.BillingTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxRunner construye el runner con el pool; timeout acota cada consulta dentro de la tx.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, timeout: timeout}
}

// RunAuth transacción con empleados y tokens de recuperación (canje de recuperación).
func (r *TxRunner) RunAuth(ctx context.Context, fn func(
	employees repository.EmployeeRepository,
	recovery repository.RecoveryTokenRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewEmployeeRepository(tx, r.timeout), NewRecoveryTokenRepository(tx, r.timeout))
	})
}

// RunBilling transacción con productos y facturas (CreateInvoice).
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewProductRepository(tx, r.timeout), NewInvoiceRepository(tx, r.timeout))
	})
}

// run inicia la transacción, ejecuta fn y hace Commit o Rollback.
func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}
