package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Store StoreConfig
	Mongo MongoConfig
	Pg    PostgresConfig
	Redis RedisConfig
	Audit AuditConfig

	// AdminSeedPath points at a YAML file of admins to create at startup.
	AdminSeedPath string `env:"ADMIN_SEED_PATH"`
}

type AuthConfig struct {
	// JWTSecret has no default: a missing secret must stop the process.
	JWTSecret  string        `env:"JWT_SECRET, required"`
	JWTTTL     time.Duration `env:"JWT_TTL,    default=168h"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
	// LegacyLoginErrors reports unknown accounts as 404 instead of 401.
	LegacyLoginErrors bool `env:"AUTH_LEGACY_LOGIN_ERRORS, default=false"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace"`
}

type PostgresConfig struct {
	DSN    string `env:"POSTGRES_DSN"`
	Schema string `env:"POSTGRES_SCHEMA, default=identity"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,             default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,               default=0"`
	LockTTL  time.Duration `env:"REGISTRATION_LOCK_TTL,  default=10s"`
	LockWait time.Duration `env:"REGISTRATION_LOCK_WAIT, default=2s"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l. Tests pass an envconfig.MapLookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("config: JWT_SECRET must not be blank")
	}
	if c.Auth.JWTTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive")
	}
	switch c.Store.Driver {
	case DriverMongo:
	case DriverPostgres:
		if c.Pg.DSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	return nil
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}
