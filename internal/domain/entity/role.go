package entity

// Roles sembrados en el despliegue.
const (
	RoleAdmin = "ADMIN"
	RoleBasic = "BASIC"
)

// Role agrupa permisos con nombre único.
type Role struct {
	ID          string
	Name        string
	Status      string
	Permissions []Permission
}

// Permission capacidad atómica identificada por nombre (p. ej. CanCreateInvoice).
type Permission struct {
	ID   string
	Name string
}
