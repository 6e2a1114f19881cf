package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

const uniqueViolation = "23505"

// IdentityRepository implements ports.CredentialStore over three tables in one
// schema. The pool is owned by the caller.
type IdentityRepository struct {
	pool   *pgxpool.Pool
	schema string
}

func NewIdentityRepository(pool *pgxpool.Pool, schema string) (*IdentityRepository, error) {
	if pool == nil {
		return nil, errors.New("postgres: nil pool")
	}
	schema, err := validSchema(schema)
	if err != nil {
		return nil, err
	}
	return &IdentityRepository{pool: pool, schema: schema}, nil
}

const selectColumns = `id, email, COALESCE(phone, ''), first_name, last_name, password_hash,
  COALESCE(business_name, ''), COALESCE(license_number, ''), years_of_experience,
  COALESCE(department, ''), COALESCE(employee_id, ''), COALESCE(primary_id, ''),
  is_active, created_at, updated_at`

func (r *IdentityRepository) table(store domain.StoreKind) (string, error) {
	switch store {
	case domain.StoreUsers, domain.StoreAgents, domain.StoreAdmins:
		return ident(r.schema, string(store)), nil
	}
	return "", domain.ErrInvalidStore
}

func columnsFor(store domain.StoreKind) string {
	if store == domain.StoreUsers {
		return selectColumns + ", role"
	}
	return selectColumns
}

func scanIdentity(row pgx.Row, store domain.StoreKind) (*domain.Identity, error) {
	id := &domain.Identity{Store: store}
	dest := []any{
		&id.ID, &id.Email, &id.Phone, &id.FirstName, &id.LastName, &id.PasswordHash,
		&id.BusinessName, &id.LicenseNumber, &id.YearsOfExperience,
		&id.Department, &id.EmployeeID, &id.PrimaryID,
		&id.Active, &id.CreatedAt, &id.UpdatedAt,
	}
	var role string
	if store == domain.StoreUsers {
		dest = append(dest, &role)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	id.Role = domain.Role(role)
	id.CreatedAt = id.CreatedAt.UTC()
	id.UpdatedAt = id.UpdatedAt.UTC()
	return id, nil
}

// probeWhere ORs the non-empty probe fields into a WHERE clause.
func probeWhere(p ports.Probe) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if p.Email != "" {
		args = append(args, p.Email)
		clauses = append(clauses, fmt.Sprintf("email = $%d", len(args)))
	}
	if p.Phone != "" {
		args = append(args, p.Phone)
		clauses = append(clauses, fmt.Sprintf("phone = $%d", len(args)))
	}
	return strings.Join(clauses, " OR "), args
}

func (r *IdentityRepository) FindByProbe(ctx context.Context, store domain.StoreKind, probe ports.Probe) (*domain.Identity, error) {
	table, err := r.table(store)
	if err != nil {
		return nil, err
	}
	where, args := probeWhere(probe)
	if where == "" {
		return nil, domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+columnsFor(store)+` FROM `+table+` WHERE `+where+` ORDER BY created_at LIMIT 1`,
		args...,
	)
	id, err := scanIdentity(row, store)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find %s: %w", store, err)
	}
	return id, nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, store domain.StoreKind, id string) (*domain.Identity, error) {
	table, err := r.table(store)
	if err != nil {
		return nil, err
	}
	if _, err := ulid.ParseStrict(id); err != nil {
		return nil, domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `SELECT `+columnsFor(store)+` FROM `+table+` WHERE id = $1`, id)
	identity, err := scanIdentity(row, store)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find %s by id: %w", store, err)
	}
	return identity, nil
}

func (r *IdentityRepository) Create(ctx context.Context, store domain.StoreKind, identity *domain.Identity) (*domain.Identity, error) {
	table, err := r.table(store)
	if err != nil {
		return nil, err
	}

	created := *identity
	created.ID = ulid.Make().String()
	created.Store = store
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}

	cols := `id, email, phone, first_name, last_name, password_hash,
  business_name, license_number, years_of_experience,
  department, employee_id, primary_id, is_active, created_at, updated_at`
	placeholders := `$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15`
	args := []any{
		created.ID, created.Email, nullable(created.Phone), created.FirstName, created.LastName, created.PasswordHash,
		nullable(created.BusinessName), nullable(created.LicenseNumber), created.YearsOfExperience,
		nullable(created.Department), nullable(created.EmployeeID), nullable(created.PrimaryID),
		created.Active, created.CreatedAt, created.UpdatedAt,
	}
	if store == domain.StoreUsers {
		role := created.Role
		if role == "" {
			role = domain.RoleUser
		}
		cols += ", role"
		placeholders += ", $16"
		args = append(args, string(role))
	} else {
		created.Role = ""
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `INSERT INTO `+table+` (`+cols+`) VALUES (`+placeholders+`)`, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert %s: %w", store, err)
	}
	return &created, nil
}

func (r *IdentityRepository) Delete(ctx context.Context, store domain.StoreKind, id string) error {
	table, err := r.table(store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete %s: %w", store, err)
	}
	return nil
}

func (r *IdentityRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
