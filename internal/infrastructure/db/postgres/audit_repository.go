package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// AuditRepository implements ports.AuditRepository over the auth_events table.
type AuditRepository struct {
	pool  *pgxpool.Pool
	table string
}

func NewAuditRepository(pool *pgxpool.Pool, schema string) (*AuditRepository, error) {
	if pool == nil {
		return nil, errors.New("postgres: nil pool")
	}
	schema, err := validSchema(schema)
	if err != nil {
		return nil, err
	}
	return &AuditRepository{pool: pool, table: ident(schema, "auth_events")}, nil
}

func (r *AuditRepository) InsertEvent(ctx context.Context, event domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO `+r.table+` (type, subject_id, role, store, identifier, reason, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(event.Type),
		nullable(event.SubjectID),
		nullable(string(event.Role)),
		nullable(string(event.Store)),
		event.Identifier,
		nullable(event.Reason),
		event.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
