package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/credence-id/credence/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists role grants to PostgreSQL.
// It implements the Store interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, principal ledger.Principal, role Role) (*Grant, error) {
	g := &Grant{}
	err := s.db.QueryRow(ctx,
		`SELECT principal, role, active, granted_by, updated_at
		 FROM role_grants WHERE principal = $1 AND role = $2`,
		string(principal), string(role),
	).Scan(&g.Principal, &g.Role, &g.Active, &g.GrantedBy, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeGrantNotFound,
				"no %s grant for %s", role, principal)
		}
		return nil, fmt.Errorf("get grant: %w", err)
	}
	return g, nil
}

// Put implements Store.
func (s *PostgresStore) Put(ctx context.Context, g *Grant) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO role_grants (principal, role, active, granted_by, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (principal, role)
		 DO UPDATE SET active = $3, granted_by = $4, updated_at = $5`,
		string(g.Principal), string(g.Role), g.Active, string(g.GrantedBy), g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put grant: %w", err)
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, principal ledger.Principal) ([]*Grant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT principal, role, active, granted_by, updated_at
		 FROM role_grants WHERE principal = $1 ORDER BY role`,
		string(principal),
	)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var out []*Grant
	for rows.Next() {
		g := &Grant{}
		if err := rows.Scan(&g.Principal, &g.Role, &g.Active, &g.GrantedBy, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
