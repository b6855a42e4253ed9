package metastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists metadata blobs to PostgreSQL, keyed by their
// content-addressed ref. It implements the Store interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put implements Store.
func (s *PostgresStore) Put(ctx context.Context, data []byte) (string, error) {
	ref := RefFor(data)
	_, err := s.db.Exec(ctx,
		`INSERT INTO metadata_blobs (ref, data, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (ref) DO NOTHING`,
		ref, data,
	)
	if err != nil {
		return "", fmt.Errorf("put blob: %w", err)
	}
	return ref, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if _, err := ParseRef(ref); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM metadata_blobs WHERE ref = $1`, ref).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get blob: %w", err)
	}
	return data, nil
}
