package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa toda la configuración de la aplicación.
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	Auth      AuthConfig
	HTTP      HTTPConfig
	SMTP      SMTPConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
	Seed      SeedConfig
}

// AppConfig datos generales del proceso.
type AppConfig struct {
	Env      string
	Name     string
	LogLevel string
}

// DBConfig conexión a PostgreSQL.
type DBConfig struct {
	DatabaseURL  string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	QueryTimeout time.Duration
}

// DSN devuelve la URL de conexión. DATABASE_URL tiene prioridad.
func (c DBConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// JWTConfig firma y validación del token de acceso.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
	Audience   string
}

// AuthConfig ventanas de validez de sesiones y recuperación.
type AuthConfig struct {
	RefreshDays     int
	RecoveryMinutes int
	MaxSessions     int
}

// HTTPConfig servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
	// ProxyHeader cabecera con la IP real del cliente detrás de un proxy (p. ej. X-Forwarded-For).
	ProxyHeader string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMTPConfig servidor de correo para notificaciones. Host vacío desactiva el envío real.
type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	FromName   string
	MaxRetries int
}

// Addr devuelve host:port del servidor SMTP.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig URL vacía implica limitador en memoria.
type RedisConfig struct {
	URL string
}

// RateLimitConfig límites en formato de ulule/limiter ("10-M", "100-H").
type RateLimitConfig struct {
	Login string
	// LoginFailures solo cuenta los logins fallidos de un mismo email.
	LoginFailures string
	Recovery      string
}

// TelemetryConfig exportador OTLP. Endpoint vacío desactiva el tracing.
type TelemetryConfig struct {
	Endpoint string
	Insecure bool
}

// SeedConfig empleado administrador inicial.
type SeedConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	AdminDocument string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde .env).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "facturabodega-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL:  getString(v, "DATABASE_URL", ""),
			Host:         getString(v, "DB_HOST", "localhost"),
			Port:         getInt(v, "DB_PORT", 5432),
			User:         getString(v, "DB_USER", "postgres"),
			Password:     getString(v, "DB_PASSWORD", ""),
			DBName:       getString(v, "DB_NAME", "facturabodega"),
			SSLMode:      getString(v, "DB_SSLMODE", "disable"),
			QueryTimeout: time.Duration(getInt(v, "DB_QUERY_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "facturabodega"),
			Audience:   getString(v, "JWT_AUDIENCE", "facturabodega-clients"),
		},
		Auth: AuthConfig{
			RefreshDays:     getInt(v, "AUTH_REFRESH_DAYS", 7),
			RecoveryMinutes: getInt(v, "AUTH_RECOVERY_MINUTES", 60),
			MaxSessions:     getInt(v, "AUTH_MAX_SESSIONS", 5),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),

			ProxyHeader: getString(v, "HTTP_PROXY_HEADER", ""),
		},
		SMTP: SMTPConfig{
			Host:       getString(v, "SMTP_HOST", ""),
			Port:       getInt(v, "SMTP_PORT", 587),
			User:       getString(v, "SMTP_USER", ""),
			Password:   getString(v, "SMTP_PASSWORD", ""),
			From:       getString(v, "SMTP_FROM", ""),
			FromName:   getString(v, "SMTP_FROM_NAME", "Facturación y Bodega"),
			MaxRetries: getInt(v, "SMTP_MAX_RETRIES", 3),
		},
		Redis: RedisConfig{
			URL: getString(v, "REDIS_URL", ""),
		},
		RateLimit: RateLimitConfig{
			Login:         getString(v, "RATE_LOGIN", "10-M"),
			LoginFailures: getString(v, "RATE_LOGIN_FAILURES", "10-H"),
			Recovery:      getString(v, "RATE_RECOVERY", "3-M"),
		},
		Telemetry: TelemetryConfig{
			Endpoint: getString(v, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure: getString(v, "OTEL_EXPORTER_OTLP_INSECURE", "false") == "true",
		},
		Seed: SeedConfig{
			AdminName:     getString(v, "SEED_ADMIN_NAME", "Administrador"),
			AdminEmail:    getString(v, "SEED_ADMIN_EMAIL", ""),
			AdminPassword: getString(v, "SEED_ADMIN_PASSWORD", ""),
			AdminDocument: getString(v, "SEED_ADMIN_DOCUMENT", ""),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET es requerido")
	}
	if cfg.JWT.Expiration <= 0 || cfg.Auth.RefreshDays <= 0 || cfg.Auth.RecoveryMinutes <= 0 {
		return nil, fmt.Errorf("las ventanas de expiración deben ser positivas")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
