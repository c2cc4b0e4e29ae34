package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LocalStateRepository is a key to JSON-blob store backed by SQLite. It plays
// the role the browser client gives to localStorage: every feature persists
// its whole collection under one key and rewrites it on each mutation.
type LocalStateRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLocalStateRepository(db *sql.DB, logger zerolog.Logger) *LocalStateRepository {
	return &LocalStateRepository{db: db, logger: logger}
}

// Get returns the raw JSON stored under key. A missing key is not an error;
// it returns (nil, false, nil).
func (r *LocalStateRepository) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM local_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("failed to read local state")
		return nil, false, fmt.Errorf("failed to read local state %q: %w", key, err)
	}
	return json.RawMessage(value), true, nil
}

// GetJSON unmarshals the value stored under key into out. Corrupt JSON is
// treated the same as a missing key: the offending row is deleted and (false,
// nil) is returned so callers can fall through to their next recovery step.
func (r *LocalStateRepository) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt local state")
		if delErr := r.Delete(ctx, key); delErr != nil {
			return false, delErr
		}
		return false, nil
	}
	return true, nil
}

// Set stores value under key, replacing any previous value.
func (r *LocalStateRepository) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal local state %q: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), time.Now())
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("failed to write local state")
		return fmt.Errorf("failed to write local state %q: %w", key, err)
	}

	r.logger.Debug().Str("key", key).Int("bytes", len(raw)).Msg("local state written")
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (r *LocalStateRepository) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM local_state WHERE key = ?`, key); err != nil {
			r.logger.Error().Err(err).Str("key", key).Msg("failed to delete local state")
			return fmt.Errorf("failed to delete local state %q: %w", key, err)
		}
	}
	return nil
}
