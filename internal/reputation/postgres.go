package reputation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credence-id/credence/internal/ledger"
)

// PostgresStore persists reputation accounts and events to PostgreSQL.
// Apply runs in a transaction holding a row lock on the target's account,
// so concurrent events for one target serialize while disjoint targets
// proceed independently.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const eventColumns = `id, target_principal, issuer_principal, delta, event_type, description, proof_ref, timestamp`

// Apply implements Store.
func (s *PostgresStore) Apply(ctx context.Context, ev *Event) (*Account, int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Create-if-absent, then lock the account row for the update.
	if _, err := tx.Exec(ctx,
		`INSERT INTO reputation_accounts (principal, total_score, trust_level, positive_count, negative_count, last_updated, active)
		 VALUES ($1, 0, $2, 0, 0, $3, true)
		 ON CONFLICT (principal) DO NOTHING`,
		string(ev.Target), LevelForScore(0), ev.Timestamp,
	); err != nil {
		return nil, 0, fmt.Errorf("ensure account: %w", err)
	}

	acct := &Account{}
	if err := tx.QueryRow(ctx,
		`SELECT principal, total_score, trust_level, positive_count, negative_count, last_updated, active
		 FROM reputation_accounts WHERE principal = $1 FOR UPDATE`,
		string(ev.Target),
	).Scan(&acct.Principal, &acct.TotalScore, &acct.TrustLevel,
		&acct.PositiveCount, &acct.NegativeCount, &acct.LastUpdated, &acct.Active); err != nil {
		return nil, 0, fmt.Errorf("lock account: %w", err)
	}
	prevLevel := acct.TrustLevel

	if _, err := tx.Exec(ctx,
		`INSERT INTO reputation_events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID, string(ev.Target), string(ev.Issuer), ev.Delta,
		ev.EventType, ev.Description, ev.ProofRef, ev.Timestamp,
	); err != nil {
		return nil, 0, fmt.Errorf("insert event: %w", err)
	}

	acct.TotalScore += ev.Delta
	if ev.Delta > 0 {
		acct.PositiveCount++
	} else {
		acct.NegativeCount++
	}
	acct.LastUpdated = ev.Timestamp
	acct.TrustLevel = LevelForScore(acct.TotalScore)

	if _, err := tx.Exec(ctx,
		`UPDATE reputation_accounts
		 SET total_score = $2, trust_level = $3, positive_count = $4, negative_count = $5, last_updated = $6
		 WHERE principal = $1`,
		string(acct.Principal), acct.TotalScore, acct.TrustLevel,
		acct.PositiveCount, acct.NegativeCount, acct.LastUpdated,
	); err != nil {
		return nil, 0, fmt.Errorf("update account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit: %w", err)
	}
	return acct, prevLevel, nil
}

// GetAccount implements Store.
func (s *PostgresStore) GetAccount(ctx context.Context, principal ledger.Principal) (*Account, error) {
	acct := &Account{}
	err := s.db.QueryRow(ctx,
		`SELECT principal, total_score, trust_level, positive_count, negative_count, last_updated, active
		 FROM reputation_accounts WHERE principal = $1`,
		string(principal),
	).Scan(&acct.Principal, &acct.TotalScore, &acct.TrustLevel,
		&acct.PositiveCount, &acct.NegativeCount, &acct.LastUpdated, &acct.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeAccountNotFound,
				"no reputation account for %s", principal)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acct, nil
}

// ListEvents implements Store.
func (s *PostgresStore) ListEvents(ctx context.Context, principal ledger.Principal) ([]*Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+eventColumns+` FROM reputation_events
		 WHERE target_principal = $1 ORDER BY timestamp DESC, id DESC`,
		string(principal),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		ev := &Event{}
		if err := rows.Scan(&ev.ID, &ev.Target, &ev.Issuer, &ev.Delta,
			&ev.EventType, &ev.Description, &ev.ProofRef, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// GetEvent implements Store.
func (s *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	ev := &Event{}
	err := s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM reputation_events WHERE id = $1`, id,
	).Scan(&ev.ID, &ev.Target, &ev.Issuer, &ev.Delta,
		&ev.EventType, &ev.Description, &ev.ProofRef, &ev.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeEventNotFound,
				"no reputation event %s", id)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}
