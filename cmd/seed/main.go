// seed aplica migraciones y siembra el catálogo de roles/permisos y el administrador inicial.
//
// Uso:
//
//	go run ./cmd/seed migrate      # aplica las migraciones pendientes
//	go run ./cmd/seed catalog      # permisos, ADMIN y BASIC
//	go run ./cmd/seed admin        # empleado administrador desde SEED_ADMIN_*
//	go run ./cmd/seed all          # todo lo anterior, en orden
//
// Todos los pasos son idempotentes.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturabodega-api/internal/application/usecase"
	"github.com/jhoicas/facturabodega-api/internal/infrastructure/postgres"
	"github.com/jhoicas/facturabodega-api/pkg/config"
	"github.com/jhoicas/facturabodega-api/pkg/logger"
	"github.com/jhoicas/facturabodega-api/pkg/password"
)

type env struct {
	cfg *config.Config
	log *logger.Logger
}

func main() {
	e := &env{}
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Migraciones y datos iniciales de facturabodega",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			e.cfg = cfg
			e.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
			return nil
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Aplica las migraciones pendientes",
			RunE:  func(cmd *cobra.Command, _ []string) error { return e.migrate(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "catalog",
			Short: "Siembra permisos y roles ADMIN/BASIC",
			RunE:  func(cmd *cobra.Command, _ []string) error { return e.withSeeder(cmd.Context(), seedCatalog) },
		},
		&cobra.Command{
			Use:   "admin",
			Short: "Crea el empleado administrador si no existe",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return e.withSeeder(cmd.Context(), e.seedAdmin)
			},
		},
		&cobra.Command{
			Use:   "all",
			Short: "Migraciones, catálogo y administrador",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := e.migrate(cmd.Context()); err != nil {
					return err
				}
				return e.withSeeder(cmd.Context(), func(ctx context.Context, s *usecase.SeedUseCase) error {
					if err := seedCatalog(ctx, s); err != nil {
						return err
					}
					return e.seedAdmin(ctx, s)
				})
			},
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func (e *env) migrate(ctx context.Context) error {
	return postgres.ApplyMigrations(ctx, e.cfg.DB.DSN(), e.log.Component("migrations"))
}

func (e *env) withSeeder(ctx context.Context, fn func(context.Context, *usecase.SeedUseCase) error) error {
	pool, err := postgres.NewPool(ctx, e.cfg.DB, e.log.Component("postgres"))
	if err != nil {
		return err
	}
	defer pool.Close()

	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		return err
	}
	timeout := e.cfg.DB.QueryTimeout
	seeder := usecase.NewSeedUseCase(
		postgres.NewRoleRepository(pool, timeout),
		postgres.NewEmployeeRepository(pool, timeout),
		hasher,
		e.log.Component("seed"),
	)
	return fn(ctx, seeder)
}

func seedCatalog(ctx context.Context, s *usecase.SeedUseCase) error {
	return s.SeedCatalog(ctx)
}

func (e *env) seedAdmin(ctx context.Context, s *usecase.SeedUseCase) error {
	seed := e.cfg.Seed
	_, err := s.EnsureAdmin(ctx, usecase.AdminSeed{
		Name:     seed.AdminName,
		Email:    seed.AdminEmail,
		Password: seed.AdminPassword,
		Document: seed.AdminDocument,
	})
	return err
}
