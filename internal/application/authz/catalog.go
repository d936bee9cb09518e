// Package authz resuelve qué permisos tiene cada rol. El catálogo es una
// instantánea inmutable; una recarga construye otra y reemplaza la referencia.
package authz

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jhoicas/facturabodega-api/internal/domain/entity"
)

// Catalog mapa rol → conjunto de permisos. No se modifica después de construido.
type Catalog struct {
	roles map[string]map[string]struct{}
}

// NewCatalog materializa el catálogo copiando los datos de roles.
func NewCatalog(roles []*entity.Role) *Catalog {
	m := make(map[string]map[string]struct{}, len(roles))
	for _, r := range roles {
		if r == nil {
			continue
		}
		set, ok := m[r.Name]
		if !ok {
			set = make(map[string]struct{}, len(r.Permissions))
			m[r.Name] = set
		}
		for _, p := range r.Permissions {
			set[p.Name] = struct{}{}
		}
	}
	return &Catalog{roles: m}
}

// HasPermission pertenencia al conjunto; rol o permiso desconocido devuelven false.
func (c *Catalog) HasPermission(role, permission string) bool {
	if c == nil {
		return false
	}
	set, ok := c.roles[role]
	if !ok {
		return false
	}
	_, ok = set[permission]
	return ok
}

// RoleCount número de roles del catálogo.
func (c *Catalog) RoleCount() int {
	if c == nil {
		return 0
	}
	return len(c.roles)
}

// RoleSource fuente de roles con permisos (lo implementa postgres.RoleRepo).
type RoleSource interface {
	ListWithPermissions(ctx context.Context) ([]*entity.Role, error)
}

// Registry mantiene la instantánea vigente del catálogo y evalúa autorizaciones.
// Las lecturas no toman locks: la instantánea se publica con atomic.Pointer.
type Registry struct {
	src     RoleSource
	current atomic.Pointer[Catalog]
	log     zerolog.Logger
}

// NewRegistry construye el registro vacío; hasta el primer Load toda evaluación se deniega.
func NewRegistry(src RoleSource, log zerolog.Logger) *Registry {
	return &Registry{src: src, log: log}
}

// Load lee todos los roles con sus permisos y publica una nueva instantánea.
// Si falla, la instantánea anterior sigue vigente.
func (r *Registry) Load(ctx context.Context) error {
	roles, err := r.src.ListWithPermissions(ctx)
	if err != nil {
		return fmt.Errorf("cargar catálogo de permisos: %w", err)
	}
	cat := NewCatalog(roles)
	r.current.Store(cat)
	r.log.Info().Int("roles", cat.RoleCount()).Msg("catálogo de permisos cargado")
	return nil
}

// Snapshot instantánea vigente (nil antes del primer Load).
func (r *Registry) Snapshot() *Catalog {
	return r.current.Load()
}

// Evaluate decide si role tiene permission. Sin rol se deniega.
func (r *Registry) Evaluate(role, permission string) bool {
	if role == "" || permission == "" {
		return false
	}
	return r.current.Load().HasPermission(role, permission)
}
