// Package password deriva y verifica hashes de contraseña argon2id ligados a la
// identidad de la cuenta (el ID del empleado). El digest de la identidad entra en la
// sal efectiva, de modo que un hash calculado para una cuenta no verifica contra otra
// aunque la contraseña sea idéntica.
//
// Formato almacenado (PHC): $argon2id$v=19$m=65536,t=3,p=2$<sal>$<hash>
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/text/unicode/norm"
)

const (
	algorithmID = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	maxMemoryKB    uint32 = 1024 * 1024
	maxTimeCost    uint32 = 16
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	maxKeyLength   uint32 = 128
	maxParallelism uint8  = 16
)

// Config parámetros de argon2id.
type Config struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig parámetros recomendados para producción.
func DefaultConfig() Config {
	return Config{Memory: 64 * 1024, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32}
}

// Hasher implementa HashPassword / VerifyHashedPassword.
type Hasher struct {
	cfg Config
}

// NewHasher valida la configuración y construye el hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	switch {
	case cfg.Memory < minMemoryKB || cfg.Memory > maxMemoryKB:
		return nil, fmt.Errorf("password: memoria fuera de rango: %d KiB", cfg.Memory)
	case cfg.Time < 1 || cfg.Time > maxTimeCost:
		return nil, fmt.Errorf("password: costo de tiempo fuera de rango: %d", cfg.Time)
	case cfg.Parallelism < 1 || cfg.Parallelism > maxParallelism:
		return nil, fmt.Errorf("password: paralelismo fuera de rango: %d", cfg.Parallelism)
	case cfg.SaltLength < minSaltLength:
		return nil, fmt.Errorf("password: sal demasiado corta: %d", cfg.SaltLength)
	case cfg.KeyLength < minKeyLength || cfg.KeyLength > maxKeyLength:
		return nil, fmt.Errorf("password: longitud de clave fuera de rango: %d", cfg.KeyLength)
	}
	return &Hasher{cfg: cfg}, nil
}

// HashPassword genera un hash salado de plaintext ligado a identity.
func (h *Hasher) HashPassword(identity, plaintext string) (string, error) {
	if identity == "" {
		return "", errors.New("password: identidad vacía")
	}
	salt := make([]byte, h.cfg.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("password: generar sal: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), boundSalt(salt, identity),
		h.cfg.Time, h.cfg.Memory, h.cfg.Parallelism, h.cfg.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		h.cfg.Memory, h.cfg.Time, h.cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyHashedPassword nunca falla: cualquier hash malformado, identidad distinta
// o contraseña incorrecta devuelve false.
func (h *Hasher) VerifyHashedPassword(identity, storedHash, plaintext string) bool {
	if identity == "" {
		return false
	}
	p, err := parsePHC(storedHash)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(plaintext), boundSalt(p.salt, identity),
		p.time, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1
}

// boundSalt concatena la sal aleatoria con el digest de la identidad normalizada (NFC).
func boundSalt(salt []byte, identity string) []byte {
	digest := sha256.Sum256([]byte(norm.NFC.String(identity)))
	out := make([]byte, 0, len(salt)+len(digest))
	out = append(out, salt...)
	return append(out, digest[:]...)
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return nil, errors.New("formato PHC inválido")
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, errors.New("versión argon2 no soportada")
	}

	var out phc
	for _, kv := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errors.New("parámetro inválido")
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, errors.New("parámetro no numérico")
		}
		switch name {
		case "m":
			out.memory = uint32(n)
		case "t":
			out.time = uint32(n)
		case "p":
			if n > uint64(maxParallelism) {
				return nil, errors.New("paralelismo fuera de rango")
			}
			out.parallelism = uint8(n)
		default:
			return nil, errors.New("parámetro desconocido")
		}
	}
	// Límites para que un hash manipulado no dispare un costo desproporcionado.
	if out.memory < minMemoryKB || out.memory > maxMemoryKB ||
		out.time < 1 || out.time > maxTimeCost || out.parallelism < 1 {
		return nil, errors.New("parámetros fuera de rango")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || uint32(len(salt)) < minSaltLength {
		return nil, errors.New("sal inválida")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || uint32(len(key)) < minKeyLength || uint32(len(key)) > maxKeyLength {
		return nil, errors.New("hash inválido")
	}
	out.salt = salt
	out.key = key
	return &out, nil
}
