package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AppURLKey is the settings row holding the deployment base URL.
const AppURLKey = "app_url"

// SettingsRepository stores deployment-wide key/value configuration.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetValue returns the stored value for a key, or empty when unset.
func (r *SettingsRepository) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, `SELECT value FROM app_settings WHERE key = $1`, key)
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetValue upserts a setting.
func (r *SettingsRepository) SetValue(ctx context.Context, key, value string) error {
	const query = `INSERT INTO app_settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
