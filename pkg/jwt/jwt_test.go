package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/facturabodega-api/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

func newSigner(t *testing.T, issuer, audience string) *pkgjwt.Signer {
	t.Helper()
	s, err := pkgjwt.NewSigner(testSecret, issuer, audience, 60)
	require.NoError(t, err)
	return s
}

func TestGenerate_IncluyeClaimsDelEmpleado(t *testing.T) {
	s := newSigner(t, "facturabodega", "clientes")
	fixed := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	s = s.WithClock(func() time.Time { return fixed })

	tok, exp, err := s.Generate("emp-1", "facu@yopmail.com", "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(60*time.Minute), exp)

	claims, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.Subject)
	assert.Equal(t, "facu@yopmail.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "facturabodega", claims.Issuer)
	assert.Contains(t, []string(claims.Audience), "clientes")
}

func TestParse_RechazaOtraAudiencia(t *testing.T) {
	tok, _, err := newSigner(t, "facturabodega", "otra-app").Generate("emp-1", "a@b.co", "BASIC")
	require.NoError(t, err)

	_, err = newSigner(t, "facturabodega", "clientes").Parse(tok)
	assert.Error(t, err, "un token emitido para otra audiencia no debe aceptarse")
}

func TestParse_RechazaOtroEmisor(t *testing.T) {
	tok, _, err := newSigner(t, "otro-emisor", "clientes").Generate("emp-1", "a@b.co", "BASIC")
	require.NoError(t, err)

	_, err = newSigner(t, "facturabodega", "clientes").Parse(tok)
	assert.Error(t, err)
}

func TestParse_RechazaTokenExpirado(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	s := newSigner(t, "facturabodega", "clientes")
	tok, _, err := s.WithClock(func() time.Time { return past }).Generate("emp-1", "a@b.co", "BASIC")
	require.NoError(t, err)

	_, err = s.Parse(tok)
	assert.Error(t, err)
}

func TestParse_RechazaFirmaConOtroSecreto(t *testing.T) {
	other, err := pkgjwt.NewSigner("otro-secreto", "facturabodega", "clientes", 60)
	require.NoError(t, err)
	tok, _, err := other.Generate("emp-1", "a@b.co", "BASIC")
	require.NoError(t, err)

	_, err = newSigner(t, "facturabodega", "clientes").Parse(tok)
	assert.Error(t, err)
}

func TestNewSigner_SecretVacio(t *testing.T) {
	_, err := pkgjwt.NewSigner("", "i", "a", 60)
	assert.Error(t, err)
}
