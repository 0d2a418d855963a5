package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habit21API/internal/challenge"
)

// ErrNotFound reports that no row exists for the user. It is a valid
// first-time-user result and must stay distinguishable from transport
// or permission failures.
var ErrNotFound = errors.New("challenge row not found")

// RemoteStore keeps one challenge row per authenticated user in the
// hosted Postgres database.
type RemoteStore struct {
	db *pgxpool.Pool
}

func NewRemoteStore(db *pgxpool.Pool) *RemoteStore {
	return &RemoteStore{db: db}
}

// EnsureSchema creates the challenges table if it does not exist yet.
func (s *RemoteStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS challenges (
		user_id TEXT PRIMARY KEY,
		challenge_data JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure challenges schema: %w", err)
	}
	return nil
}

// Upsert writes the record for the user, last writer wins.
func (s *RemoteStore) Upsert(ctx context.Context, userID string, rec *challenge.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	query := `
	INSERT INTO challenges (user_id, challenge_data, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (user_id)
	DO UPDATE SET challenge_data = EXCLUDED.challenge_data, updated_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, userID, data); err != nil {
		return fmt.Errorf("failed to upsert challenge: %w", err)
	}
	return nil
}

// Fetch returns the record for the user, or ErrNotFound when no row
// exists.
func (s *RemoteStore) Fetch(ctx context.Context, userID string) (*challenge.Record, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT challenge_data FROM challenges WHERE user_id = $1`, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch challenge: %w", err)
	}

	rec := &challenge.Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("failed to parse challenge row: %w", err)
	}
	return rec, nil
}

// Delete removes the user's row. Deleting an absent row is not an
// error.
func (s *RemoteStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM challenges WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}
