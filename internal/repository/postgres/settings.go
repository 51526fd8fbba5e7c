package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

type settingsRepository struct {
	store *Store
}

func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	const query = `SELECT pool_capacity, cancellation_hours, maintenance_mode, contact_email FROM system_settings WHERE id = 1`
	var settings models.Settings
	if err := sqlx.GetContext(ctx, r.store.ext, &settings, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("settings", "1")
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	if err := repository.ValidateEntity(settings); err != nil {
		return err
	}
	const query = `INSERT INTO system_settings (id, pool_capacity, cancellation_hours, maintenance_mode, contact_email)
        VALUES (1, :pool_capacity, :cancellation_hours, :maintenance_mode, :contact_email)
        ON CONFLICT (id) DO UPDATE SET pool_capacity = EXCLUDED.pool_capacity, cancellation_hours = EXCLUDED.cancellation_hours,
        maintenance_mode = EXCLUDED.maintenance_mode, contact_email = EXCLUDED.contact_email`
	if _, err := sqlx.NamedExecContext(ctx, r.store.ext, query, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
