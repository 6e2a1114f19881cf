package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the identity tables and their unique constraints when
// they do not exist yet. The admins table has no phone constraint.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	schema, err := validSchema(schema)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	ddl := fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %[1]s;

CREATE TABLE IF NOT EXISTS %[2]s (
  id TEXT PRIMARY KEY,
  role TEXT NOT NULL DEFAULT 'user',
  %[5]s,
  CONSTRAINT uq_users_email UNIQUE (email),
  CONSTRAINT uq_users_phone UNIQUE (phone)
);

CREATE TABLE IF NOT EXISTS %[3]s (
  id TEXT PRIMARY KEY,
  %[5]s,
  CONSTRAINT uq_agents_email UNIQUE (email),
  CONSTRAINT uq_agents_phone UNIQUE (phone)
);

CREATE TABLE IF NOT EXISTS %[4]s (
  id TEXT PRIMARY KEY,
  %[5]s,
  CONSTRAINT uq_admins_email UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS %[6]s (
  id BIGSERIAL PRIMARY KEY,
  type TEXT NOT NULL,
  subject_id TEXT NULL,
  role TEXT NULL,
  store TEXT NULL,
  identifier TEXT NOT NULL,
  reason TEXT NULL,
  occurred_at TIMESTAMPTZ NOT NULL,
  processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
		pgIdent1(schema),
		ident(schema, "users"),
		ident(schema, "agents"),
		ident(schema, "admins"),
		commonColumns,
		ident(schema, "auth_events"),
	)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const commonColumns = `email TEXT NOT NULL,
  phone TEXT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  business_name TEXT NULL,
  license_number TEXT NULL,
  years_of_experience INTEGER NOT NULL DEFAULT 0,
  department TEXT NULL,
  employee_id TEXT NULL,
  primary_id TEXT NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL`
