package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credence-id/credence/internal/ledger"
)

// PostgresStore persists verification requests and credential statuses to
// PostgreSQL. Complete locks the request row, so racing completions
// serialize and exactly one observes the pending state.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, requester_principal, credential_hash, verification_type, proof, public_signals, state, verified, result_ref, created_at, completed_at`

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, req *Request) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO verification_requests (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, string(req.Requester), string(req.CredentialHash), req.Type,
		req.Proof[:], req.PublicSignals[:], string(req.State),
		req.Verified, req.ResultRef, req.CreatedAt, req.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := scanRequest(s.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM verification_requests WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeRequestNotFound,
				"no verification request %s", id)
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// Complete implements Store.
func (s *PostgresStore) Complete(ctx context.Context, id uuid.UUID, verified bool, resultRef string, at time.Time) (*Request, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	req, err := scanRequest(tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM verification_requests WHERE id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeRequestNotFound,
				"no verification request %s", id)
		}
		return nil, fmt.Errorf("lock request: %w", err)
	}
	if req.State != StatePending {
		return nil, ledger.Errf(ledger.KindConflict, ledger.CodeAlreadyProcessed,
			"request %s is already completed", id)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE verification_requests
		 SET state = $2, verified = $3, result_ref = $4, completed_at = $5
		 WHERE id = $1`,
		id, string(StateCompleted), verified, resultRef, at,
	); err != nil {
		return nil, fmt.Errorf("complete request: %w", err)
	}

	if verified {
		if _, err := tx.Exec(ctx,
			`INSERT INTO credential_statuses (credential_hash, verified, verification_count, last_verified_at)
			 VALUES ($1, true, 1, $2)
			 ON CONFLICT (credential_hash)
			 DO UPDATE SET verified = true,
			               verification_count = credential_statuses.verification_count + 1,
			               last_verified_at = $2`,
			string(req.CredentialHash), at,
		); err != nil {
			return nil, fmt.Errorf("bump credential status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	v := verified
	completedAt := at
	req.State = StateCompleted
	req.Verified = &v
	req.ResultRef = resultRef
	req.CompletedAt = &completedAt
	return req, nil
}

// Status implements Store.
func (s *PostgresStore) Status(ctx context.Context, hash ledger.Hash) (*CredentialStatus, error) {
	st := &CredentialStatus{}
	err := s.db.QueryRow(ctx,
		`SELECT credential_hash, verified, verification_count, last_verified_at
		 FROM credential_statuses WHERE credential_hash = $1`,
		string(hash),
	).Scan(&st.CredentialHash, &st.Verified, &st.Count, &st.LastVerifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &CredentialStatus{CredentialHash: hash}, nil
		}
		return nil, fmt.Errorf("get credential status: %w", err)
	}
	return st, nil
}

func scanRequest(row pgx.Row) (*Request, error) {
	req := &Request{}
	var proof, signals []string
	err := row.Scan(&req.ID, &req.Requester, &req.CredentialHash, &req.Type,
		&proof, &signals, &req.State, &req.Verified, &req.ResultRef,
		&req.CreatedAt, &req.CompletedAt)
	if err != nil {
		return nil, err
	}
	copy(req.Proof[:], proof)
	copy(req.PublicSignals[:], signals)
	return req, nil
}
