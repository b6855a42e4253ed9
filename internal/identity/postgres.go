package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credence-id/credence/internal/ledger"
)

// PostgresStore persists identities to PostgreSQL. Unique indexes on
// owner_principal and credential_hash enforce the bijections; racing writers
// serialize on row locks and the loser surfaces as a Conflict.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `id, owner_principal, credential_hash, metadata_ref, created_at, updated_at, active`

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, id *Identity) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO identities (`+identityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id.ID, string(id.Owner), string(id.CredentialHash), id.MetadataRef,
		id.CreatedAt, id.UpdatedAt, id.Active,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "identities_credential_hash_key" {
				return ledger.Errf(ledger.KindConflict, ledger.CodeHashAlreadyUsed,
					"credential hash is already bound")
			}
			return ledger.Errf(ledger.KindConflict, ledger.CodeIdentityExists,
				"principal %s already has an identity", id.Owner)
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// SwapHash implements Store. The row lock taken by UPDATE serialises racing
// rotations on the same owner; the unique index on credential_hash rejects a
// racing claim of the same hash.
func (s *PostgresStore) SwapHash(ctx context.Context, owner ledger.Principal, newHash ledger.Hash, newMetadataRef string) (*Identity, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row, err := scanIdentity(tx.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE owner_principal = $1 FOR UPDATE`,
		string(owner),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeIdentityNotFound,
				"principal %s has no identity", owner)
		}
		return nil, fmt.Errorf("lock identity: %w", err)
	}
	if !row.Active {
		return nil, ledger.Errf(ledger.KindState, ledger.CodeIdentityInactive,
			"identity for %s is deactivated", owner)
	}

	updated, err := scanIdentity(tx.QueryRow(ctx,
		`UPDATE identities
		 SET credential_hash = $2, metadata_ref = $3, updated_at = now()
		 WHERE owner_principal = $1
		 RETURNING `+identityColumns,
		string(owner), string(newHash), newMetadataRef,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ledger.Errf(ledger.KindConflict, ledger.CodeHashAlreadyUsed,
				"credential hash is already bound")
		}
		return nil, fmt.Errorf("swap credential hash: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// SetInactive implements Store.
func (s *PostgresStore) SetInactive(ctx context.Context, owner ledger.Principal) (*Identity, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row, err := scanIdentity(tx.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE owner_principal = $1 FOR UPDATE`,
		string(owner),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeIdentityNotFound,
				"principal %s has no identity", owner)
		}
		return nil, fmt.Errorf("lock identity: %w", err)
	}
	if !row.Active {
		return nil, ledger.Errf(ledger.KindConflict, ledger.CodeAlreadyInactive,
			"identity for %s is already inactive", owner)
	}

	updated, err := scanIdentity(tx.QueryRow(ctx,
		`UPDATE identities SET active = false, updated_at = now()
		 WHERE owner_principal = $1
		 RETURNING `+identityColumns,
		string(owner),
	))
	if err != nil {
		return nil, fmt.Errorf("deactivate identity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// GetByOwner implements Store.
func (s *PostgresStore) GetByOwner(ctx context.Context, owner ledger.Principal) (*Identity, error) {
	row, err := scanIdentity(s.db.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE owner_principal = $1`,
		string(owner),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeIdentityNotFound,
				"principal %s has no identity", owner)
		}
		return nil, fmt.Errorf("get identity by owner: %w", err)
	}
	return row, nil
}

// GetByHash implements Store.
func (s *PostgresStore) GetByHash(ctx context.Context, hash ledger.Hash) (*Identity, error) {
	row, err := scanIdentity(s.db.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE credential_hash = $1`,
		string(hash),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeCredentialHash,
				"credential hash is not bound")
		}
		return nil, fmt.Errorf("get identity by hash: %w", err)
	}
	return row, nil
}

// Counts implements Store.
func (s *PostgresStore) Counts(ctx context.Context) (active, inactive int64, err error) {
	err = s.db.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE active), count(*) FILTER (WHERE NOT active) FROM identities`,
	).Scan(&active, &inactive)
	if err != nil {
		return 0, 0, fmt.Errorf("count identities: %w", err)
	}
	return active, inactive, nil
}

func scanIdentity(row pgx.Row) (*Identity, error) {
	id := &Identity{}
	err := row.Scan(&id.ID, &id.Owner, &id.CredentialHash, &id.MetadataRef,
		&id.CreatedAt, &id.UpdatedAt, &id.Active)
	if err != nil {
		return nil, err
	}
	return id, nil
}
