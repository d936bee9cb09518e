package domain

import (
	"errors"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrEmployeeNotFound  = errors.New("empleado no encontrado")
	ErrRoleNotFound      = errors.New("rol no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrUnavailable falla de infraestructura reintentable (timeout, pool agotado, cancelación).
	ErrUnavailable = errors.New("servicio no disponible temporalmente")
)

// Errores de autenticación.
var (
	ErrEmailNotRegistered = errors.New("El correo electrónico no se encuentra registrado.")
	ErrIncorrectPassword  = errors.New("La contraseña proporcionada es incorrecta.")
	ErrEmployeeInactive   = errors.New("El empleado se encuentra inactivo.")
)

// Errores de token (refresh y recuperación). El motivo se conserva vía TokenReasonOf.
var (
	ErrTokenInvalid = errors.New("token inválido")
	ErrTokenExpired = errors.New("token expirado")
	ErrTokenUsed    = errors.New("token ya utilizado")
)

// FieldError adjunta el campo de entrada al error de dominio. Unwrap conserva errors.Is.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

// NewFieldError construye un FieldError; si message es vacío se usa el texto del error.
func NewFieldError(field string, err error, message string) *FieldError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &FieldError{Field: field, Message: message, Err: err}
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error { return e.Err }

// ValidationError agrega varios errores de campo.
type ValidationError struct {
	Fields []*FieldError
}

// Add agrega un fallo de campo envuelto en ErrInvalidInput.
func (v *ValidationError) Add(field, message string) {
	v.Fields = append(v.Fields, NewFieldError(field, ErrInvalidInput, message))
}

// OrNil devuelve nil si no hay fallos; así el caller puede hacer `return v.OrNil()`.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, f.Error())
	}
	return "validación: " + strings.Join(msgs, "; ")
}

func (v *ValidationError) Unwrap() error { return ErrInvalidInput }

// Kind clasifica un error para la capa de transporte.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindToken
	KindNotFound
	KindConflict
	KindUnavailable
)

// KindOf clasifica err recorriendo la cadena de wrapping.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenUsed):
		return KindToken
	case errors.Is(err, ErrEmailNotRegistered), errors.Is(err, ErrIncorrectPassword), errors.Is(err, ErrEmployeeInactive):
		return KindAuthentication
	case errors.Is(err, ErrForbidden):
		return KindAuthorization
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmployeeNotFound), errors.Is(err, ErrRoleNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConflict), errors.Is(err, ErrInsufficientStock):
		return KindConflict
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	default:
		return KindInternal
	}
}

// Motivos de rechazo de un token.
const (
	TokenReasonInvalid = "invalid"
	TokenReasonExpired = "expired"
	TokenReasonUsed    = "used"
)

// TokenReasonOf devuelve el motivo del rechazo o "" si err no es un error de token.
func TokenReasonOf(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return TokenReasonExpired
	case errors.Is(err, ErrTokenUsed):
		return TokenReasonUsed
	case errors.Is(err, ErrTokenInvalid):
		return TokenReasonInvalid
	default:
		return ""
	}
}

// FieldsOf extrae los errores de campo de err (FieldError suelto o ValidationError).
func FieldsOf(err error) []*FieldError {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Fields
	}
	var f *FieldError
	if errors.As(err, &f) {
		return []*FieldError{f}
	}
	return nil
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindToken:
		return "token"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}
