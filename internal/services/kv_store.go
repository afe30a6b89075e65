package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"obs-text-slides/internal/models"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("not found")

// KVStore is the durable key-value snapshot written by the dock
type KVStore struct {
	database *sql.DB
	stateKey string
	logger   *slog.Logger
}

// NewKVStore creates a key-value store on database; state snapshots are kept
// under stateKey.
func NewKVStore(database *sql.DB, stateKey string, logger *slog.Logger) *KVStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &KVStore{
		database: database,
		stateKey: stateKey,
		logger:   logger,
	}
}

// Get returns the value stored under key
func (kv *KVStore) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM kv_store WHERE key = ?`

	var value string
	err := kv.database.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("key %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query key: %w", err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (kv *KVStore) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := kv.database.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

// Delete removes key
func (kv *KVStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_store WHERE key = ?`

	result, err := kv.database.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("key %s: %w", key, ErrNotFound)
	}
	return nil
}

// LoadState restores the last session. A missing, unreadable or malformed
// snapshot yields the default state; settings are merged over defaults.
func (kv *KVStore) LoadState(ctx context.Context) models.PlaylistState {
	raw, err := kv.Get(ctx, kv.stateKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			kv.logger.Warn("failed to read saved state, using defaults", slog.String("error", err.Error()))
		}
		return models.DefaultState()
	}

	state, err := models.DecodeState([]byte(raw), models.DefaultState())
	if err != nil {
		kv.logger.Warn("saved state is unusable, using defaults", slog.String("error", err.Error()))
		return models.DefaultState()
	}
	state.ActiveSlideIndex = models.ClampIndex(state.ActiveSlideIndex, len(state.Slides))

	kv.logger.Info("restored saved state",
		slog.Int("slides", len(state.Slides)),
		slog.String("updatedAt", state.UpdatedAt))
	return state
}

// StateCommitted persists every committed state under the state key.
func (kv *KVStore) StateCommitted(ctx context.Context, state models.PlaylistState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return kv.Set(ctx, kv.stateKey, string(data))
}
