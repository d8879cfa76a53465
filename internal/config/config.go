package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL      string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns       int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBAcquireTimeout time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"5s"`

	IdentityBackend string `envconfig:"IDENTITY_BACKEND" default:"postgres"`
	TableName       string `envconfig:"TABLE_NAME"`
	AWSRegion       string `envconfig:"AWS_REGION"`

	AuthMode  string        `envconfig:"AUTH_MODE" default:"none"`
	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"catalog-api"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"1h"`
	JWKSURL   string        `envconfig:"JWKS_URL"`
	JWKSTTL   time.Duration `envconfig:"JWKS_TTL" default:"15m"`

	XRayEnabled bool `envconfig:"XRAY_ENABLED" default:"false"`
}

// Load reads envFile when it exists, then the process environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.IdentityBackend = strings.ToLower(strings.TrimSpace(c.IdentityBackend))
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL must not be empty")
	}

	switch c.IdentityBackend {
	case BackendPostgres:
	case BackendDynamoDB:
		if c.TableName == "" || c.AWSRegion == "" {
			return errors.New("TABLE_NAME and AWS_REGION are required for the dynamodb identity backend")
		}
	default:
		return fmt.Errorf("invalid IDENTITY_BACKEND %q", c.IdentityBackend)
	}

	switch c.AuthMode {
	case "none":
		if c.IsProduction() {
			return errors.New("AUTH_MODE=none is not allowed in production")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case "jwks":
		if c.JWKSURL == "" {
			return errors.New("JWKS_URL is required when AUTH_MODE=jwks")
		}
	default:
		return fmt.Errorf("invalid AUTH_MODE %q", c.AuthMode)
	}

	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
