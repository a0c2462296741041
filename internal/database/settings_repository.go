package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/wordmemo/pkg/models"
	"github.com/jmoiron/sqlx"
)

const settingsKey = "settings"

// SettingsRepository persists small JSON documents by key
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new repository instance
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings, or the defaults if none were saved
func (r *SettingsRepository) Get(ctx context.Context) (models.Settings, error) {
	settings := models.DefaultSettings()
	found, err := r.getValue(ctx, settingsKey, &settings)
	if err != nil {
		return models.Settings{}, err
	}
	if !found {
		return models.DefaultSettings(), nil
	}
	return settings, nil
}

// Save stores the settings
func (r *SettingsRepository) Save(ctx context.Context, settings models.Settings) error {
	return r.setValue(ctx, settingsKey, settings)
}

func (r *SettingsRepository) getValue(ctx context.Context, key string, dest interface{}) (bool, error) {
	var raw string
	err := r.db.GetContext(ctx, &raw, r.db.Rebind("SELECT value FROM settings WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *SettingsRepository) setValue(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	query := r.db.Rebind(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`)
	if _, err := r.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
