package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// Bytes de entropía de los tokens opacos (256 bits).
const opaqueTokenBytes = 32

// AccessClaims datos del empleado embebidos en el token de acceso.
type AccessClaims struct {
	Subject string
	Email   string
	Role    string
}

// TokenIssuer genera tokens de acceso, de refresco y de recuperación.
// Solo genera: la persistencia es responsabilidad del caller.
type TokenIssuer struct {
	signer     AccessTokenSigner
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer construye el emisor. refreshDays es la vigencia del token de refresco.
func NewTokenIssuer(signer AccessTokenSigner, refreshDays int, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	if refreshDays <= 0 {
		refreshDays = 7
	}
	return &TokenIssuer{
		signer:     signer,
		refreshTTL: time.Duration(refreshDays) * 24 * time.Hour,
		now:        now,
	}
}

// CreateAccessToken firma un token HS256 con sub, email y role.
func (i *TokenIssuer) CreateAccessToken(c AccessClaims) (string, time.Time, error) {
	if c.Subject == "" {
		return "", time.Time{}, errors.New("token de acceso sin sujeto")
	}
	return i.signer.Generate(c.Subject, c.Email, c.Role)
}

// GenerateRefreshToken token opaco aleatorio con vigencia fija.
func (i *TokenIssuer) GenerateRefreshToken() (string, time.Time, error) {
	tok, err := randomToken()
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, i.now().Add(i.refreshTTL), nil
}

// GenerateRecoveryToken token opaco aleatorio válido por validityMinutes.
func (i *TokenIssuer) GenerateRecoveryToken(validityMinutes int) (string, time.Time, error) {
	if validityMinutes <= 0 {
		return "", time.Time{}, fmt.Errorf("vigencia de recuperación inválida: %d", validityMinutes)
	}
	tok, err := randomToken()
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, i.now().Add(time.Duration(validityMinutes) * time.Minute), nil
}

func randomToken() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generar token aleatorio: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
