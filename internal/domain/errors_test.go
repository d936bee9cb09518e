package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/facturabodega-api/internal/domain"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want domain.Kind
	}{
		{domain.NewFieldError("email", domain.ErrEmailNotRegistered, ""), domain.KindAuthentication},
		{domain.NewFieldError("password", domain.ErrIncorrectPassword, ""), domain.KindAuthentication},
		{domain.NewFieldError("token", domain.ErrTokenExpired, "expiró"), domain.KindToken},
		{fmt.Errorf("get employee: %w", domain.ErrUnavailable), domain.KindUnavailable},
		{domain.ErrRoleNotFound, domain.KindNotFound},
		{domain.ErrInsufficientStock, domain.KindConflict},
		{domain.ErrForbidden, domain.KindAuthorization},
		{&domain.ValidationError{Fields: []*domain.FieldError{domain.NewFieldError("name", domain.ErrInvalidInput, "requerido")}}, domain.KindValidation},
		{context.DeadlineExceeded, domain.KindInternal},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, domain.KindOf(c.err), "err=%v", c.err)
	}
}

// El motivo del token se conserva como dato a través del wrapping.
func TestTokenReasonOf(t *testing.T) {
	wrapped := fmt.Errorf("redeem: %w", domain.NewFieldError("token", domain.ErrTokenUsed, ""))
	assert.Equal(t, domain.TokenReasonUsed, domain.TokenReasonOf(wrapped))
	assert.Equal(t, domain.TokenReasonInvalid, domain.TokenReasonOf(domain.ErrTokenInvalid))
	assert.Equal(t, domain.TokenReasonExpired, domain.TokenReasonOf(domain.ErrTokenExpired))
	assert.Equal(t, "", domain.TokenReasonOf(errors.New("otro")))
}

func TestValidationError_OrNilYFields(t *testing.T) {
	var v domain.ValidationError
	assert.NoError(t, v.OrNil())

	v.Add("clientId", "El cliente no se encuentra registrado.")
	v.Add("details[0].quantity", "stock insuficiente")
	err := v.OrNil()
	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	fields := domain.FieldsOf(fmt.Errorf("crear factura: %w", err))
	assert.Len(t, fields, 2)
	assert.Equal(t, "clientId", fields[0].Field)
}
