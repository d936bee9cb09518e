package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/facturabodega-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// parseBody decodifica el cuerpo JSON en dst y aplica las reglas `validate`.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.NewFieldError("body", domain.ErrInvalidInput, "El cuerpo de la petición no es un JSON válido.")
	}
	return validateStruct(dst)
}

// parseQuery decodifica la query string en dst y la valida.
func parseQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return domain.NewFieldError("query", domain.ErrInvalidInput, "Parámetros de consulta inválidos.")
	}
	return validateStruct(dst)
}

func validateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validar entrada: %w", err)
	}
	var v domain.ValidationError
	for _, fe := range verrs {
		v.Add(fieldPath(fe), fieldMessage(fe))
	}
	return v.OrNil()
}

// fieldPath ruta del campo sin el nombre del struct raíz: "details[0].product_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "El campo es obligatorio."
	case "email":
		return "El correo electrónico no tiene un formato válido."
	case "max":
		return fmt.Sprintf("La longitud máxima es %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Debe contener al menos %s elemento(s).", fe.Param())
		}
		return fmt.Sprintf("El valor mínimo es %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("El valor debe ser mayor que %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Valores permitidos: %s.", fe.Param())
	default:
		return "El valor no es válido."
	}
}

// pathID lee y valida un parámetro de ruta con formato UUID.
func pathID(c *fiber.Ctx, name string) (string, error) {
	raw := c.Params(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.NewFieldError(name, domain.ErrInvalidInput, "El identificador no es válido.")
	}
	return id.String(), nil
}
