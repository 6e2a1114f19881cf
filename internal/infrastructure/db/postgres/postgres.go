package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultTimeout = 10 * time.Second
	defaultSchema  = "identity"
)

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config captures the settings required to open the Postgres pool.
type Config struct {
	DSN     string
	Schema  string
	Timeout time.Duration
}

// Connect opens a pgx pool and verifies connectivity by acquiring a connection.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres parse dsn: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

func validSchema(schema string) (string, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return defaultSchema, nil
	}
	if !identRe.MatchString(schema) {
		return "", fmt.Errorf("postgres: invalid schema identifier %q", schema)
	}
	return schema, nil
}

// ident quotes a schema-qualified identifier: "schema"."name".
func ident(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgIdent1(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
