package configstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wakeward/was-core/internal/infrastructure/database"
)

// Store persists the user configuration as a single JSON document in SQLite.
//
// All methods are safe for concurrent use; SQLite serialises access through
// the single writer connection.
type Store struct {
	db *database.DB
}

// New creates a configuration store backed by the given database.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Get returns the stored user configuration.
// It fails with ErrNotConfigured when nothing has been stored yet.
func (s *Store) Get(ctx context.Context) (*UserConfig, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT config FROM user_config WHERE id = 1",
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("reading user config: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal([]byte(doc), &cfg); err != nil {
		return nil, fmt.Errorf("decoding user config: %w", err)
	}
	return &cfg, nil
}

// Save validates and stores the user configuration, replacing any previous
// document.
func (s *Store) Save(ctx context.Context, cfg *UserConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding user config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_config (id, config, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			config = excluded.config,
			updated_at = excluded.updated_at
	`, string(doc), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing user config: %w", err)
	}

	return nil
}
